package services

import (
	"fmt"
	"testing"
	"time"

	"intouch/internal/models"
	"intouch/internal/pagination"
	"intouch/internal/testutil"
)

func TestCreateConnection(t *testing.T) {
	t.Run("valid_with_defaults", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		conn, err := svc.CreateConnection(user.ID, ConnectionCreate{
			Name:                  "Maya",
			ReminderFrequencyDays: 14,
		})
		testutil.AssertNoError(t, err)

		if conn.ID == 0 {
			t.Fatal("expected non-zero connection ID")
		}
		if conn.Type != "acquaintance" {
			t.Errorf("expected default type acquaintance, got %s", conn.Type)
		}
		if conn.ReachOutPriority != 0 {
			t.Errorf("expected default priority 0, got %d", conn.ReachOutPriority)
		}
		if conn.LastContactedAt != nil {
			t.Error("expected new connection to have no last contact")
		}
	})

	t.Run("missing_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		_, err := svc.CreateConnection(user.ID, ConnectionCreate{ReminderFrequencyDays: 7})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_frequency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		_, err := svc.CreateConnection(user.ID, ConnectionCreate{Name: "Maya", ReminderFrequencyDays: 0})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("priority_out_of_range", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		_, err := svc.CreateConnection(user.ID, ConnectionCreate{
			Name:                  "Maya",
			ReminderFrequencyDays: 7,
			ReachOutPriority:      11,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListConnections(t *testing.T) {
	t.Run("higher_priority_ranks_first", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestConnection(t, db, user.ID, "Low", 7, 2)
		testutil.CreateTestConnection(t, db, user.ID, "High", 7, 8)
		testutil.CreateTestConnection(t, db, user.ID, "Mid", 7, 5)

		result, err := svc.ListConnections(user.ID, pagination.NewPage(1))
		testutil.AssertNoError(t, err)

		want := []string{"High", "Mid", "Low"}
		if len(result.Data) != len(want) {
			t.Fatalf("expected %d connections, got %d", len(want), len(result.Data))
		}
		for i, name := range want {
			if result.Data[i].Name != name {
				t.Errorf("expected position %d to be %s, got %s", i, name, result.Data[i].Name)
			}
		}
	})

	t.Run("ties_break_alphabetically", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestConnection(t, db, user.ID, "Charlie", 7, 5)
		testutil.CreateTestConnection(t, db, user.ID, "Alice", 7, 5)
		testutil.CreateTestConnection(t, db, user.ID, "Bob", 7, 5)

		// Insert timestamps differ by microseconds, which would nudge the
		// scores apart. Pin created_at so the scores tie exactly.
		sameTime := time.Now().Add(-time.Hour)
		testutil.AssertNoError(t, db.Model(&models.Connection{}).
			Where("user_id = ?", user.ID).
			Update("created_at", sameTime).Error)

		result, err := svc.ListConnections(user.ID, pagination.NewPage(1))
		testutil.AssertNoError(t, err)

		want := []string{"Alice", "Bob", "Charlie"}
		for i, name := range want {
			if result.Data[i].Name != name {
				t.Errorf("expected position %d to be %s, got %s", i, name, result.Data[i].Name)
			}
		}
	})

	t.Run("long_overdue_beats_high_priority", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		overdue := testutil.CreateTestConnection(t, db, user.ID, "Neglected", 7, 0)
		monthAgo := time.Now().AddDate(0, 0, -30)
		testutil.AssertNoError(t, db.Model(overdue).Update("last_contacted_at", monthAgo).Error)

		fresh := testutil.CreateTestConnection(t, db, user.ID, "Urgent", 7, 10)
		now := time.Now()
		testutil.AssertNoError(t, db.Model(fresh).Update("last_contacted_at", now).Error)

		result, err := svc.ListConnections(user.ID, pagination.NewPage(1))
		testutil.AssertNoError(t, err)

		if result.Data[0].Name != "Neglected" {
			t.Errorf("expected the month-overdue connection first, got %s", result.Data[0].Name)
		}
	})

	t.Run("page_overflow_reports_has_next", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		for i := 0; i < 51; i++ {
			testutil.CreateTestConnection(t, db, user.ID, fmt.Sprintf("Person %03d", i), 7, 0)
		}

		page1, err := svc.ListConnections(user.ID, pagination.NewPage(1))
		testutil.AssertNoError(t, err)
		if len(page1.Data) != 50 {
			t.Errorf("expected 50 items on page 1, got %d", len(page1.Data))
		}
		if !page1.HasNext {
			t.Error("expected page 1 to report a next page")
		}

		page2, err := svc.ListConnections(user.ID, pagination.NewPage(2))
		testutil.AssertNoError(t, err)
		if len(page2.Data) != 1 {
			t.Errorf("expected 1 item on page 2, got %d", len(page2.Data))
		}
		if page2.HasNext {
			t.Error("expected page 2 to be the last page")
		}
	})

	t.Run("page_past_end_is_empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		for i := 0; i < 30; i++ {
			testutil.CreateTestConnection(t, db, user.ID, fmt.Sprintf("Friend %02d", i), 7, 0)
		}

		result, err := svc.ListConnections(user.ID, pagination.NewPage(2))
		testutil.AssertNoError(t, err)
		if len(result.Data) != 0 {
			t.Errorf("expected empty page, got %d items", len(result.Data))
		}
		if result.HasNext {
			t.Error("expected no next page")
		}
	})

	t.Run("scoped_to_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestConnection(t, db, owner.ID, "Mine", 7, 0)
		testutil.CreateTestConnection(t, db, other.ID, "Theirs", 7, 0)

		result, err := svc.ListConnections(owner.ID, pagination.NewPage(1))
		testutil.AssertNoError(t, err)
		if len(result.Data) != 1 || result.Data[0].Name != "Mine" {
			t.Errorf("expected only the owner's connection, got %+v", result.Data)
		}
	})
}

func TestSearchConnections(t *testing.T) {
	t.Run("case_insensitive_substring", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestConnection(t, db, user.ID, "Maya Chen", 7, 0)
		testutil.CreateTestConnection(t, db, user.ID, "Amaya Lopez", 7, 0)
		testutil.CreateTestConnection(t, db, user.ID, "Bob Park", 7, 0)

		items, err := svc.SearchConnections(user.ID, "MAYA")
		testutil.AssertNoError(t, err)
		if len(items) != 2 {
			t.Fatalf("expected 2 matches, got %d", len(items))
		}
	})

	t.Run("no_matches_returns_empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestConnection(t, db, user.ID, "Maya", 7, 0)

		items, err := svc.SearchConnections(user.ID, "zzz")
		testutil.AssertNoError(t, err)
		if len(items) != 0 {
			t.Errorf("expected no matches, got %d", len(items))
		}
	})

	t.Run("scoped_to_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		testutil.CreateTestConnection(t, db, other.ID, "Maya Elsewhere", 7, 0)

		items, err := svc.SearchConnections(owner.ID, "Maya")
		testutil.AssertNoError(t, err)
		if len(items) != 0 {
			t.Errorf("expected no matches across users, got %d", len(items))
		}
	})
}

func TestGetConnectionByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestConnection(t, db, user.ID, "Maya", 7, 3)

		conn, err := svc.GetConnectionByID(user.ID, created.ID)
		testutil.AssertNoError(t, err)
		if conn.Name != "Maya" {
			t.Errorf("expected name Maya, got %s", conn.Name)
		}
	})

	t.Run("other_users_connection_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestConnection(t, db, owner.ID, "Private", 7, 0)

		_, err := svc.GetConnectionByID(intruder.ID, created.ID)
		testutil.AssertAppError(t, err, "CONNECTION_NOT_FOUND")
	})
}

func TestUpdateConnection(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }

	t.Run("partial_update_keeps_other_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestConnection(t, db, user.ID, "Maya", 14, 6)

		conn, err := svc.UpdateConnection(user.ID, created.ID, ConnectionUpdate{
			Notes: strPtr("met at the climbing gym"),
		})
		testutil.AssertNoError(t, err)

		if conn.Notes != "met at the climbing gym" {
			t.Errorf("expected notes to update, got %q", conn.Notes)
		}

		var stored models.Connection
		testutil.AssertNoError(t, db.First(&stored, created.ID).Error)
		if stored.Name != "Maya" || stored.ReminderFrequencyDays != 14 || stored.ReachOutPriority != 6 {
			t.Errorf("expected untouched fields to keep stored values, got %+v", stored)
		}
	})

	t.Run("invalid_priority", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestConnection(t, db, user.ID, "Maya", 7, 0)

		_, err := svc.UpdateConnection(user.ID, created.ID, ConnectionUpdate{ReachOutPriority: intPtr(12)})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("other_users_connection_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestConnection(t, db, owner.ID, "Private", 7, 0)

		_, err := svc.UpdateConnection(intruder.ID, created.ID, ConnectionUpdate{Notes: strPtr("nope")})
		testutil.AssertAppError(t, err, "CONNECTION_NOT_FOUND")
	})
}

func TestMarkContacted(t *testing.T) {
	t.Run("sets_last_contacted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestConnection(t, db, user.ID, "Maya", 7, 0)

		before := time.Now().Add(-time.Second)
		conn, err := svc.MarkContacted(user.ID, created.ID)
		testutil.AssertNoError(t, err)

		if conn.LastContactedAt == nil || conn.LastContactedAt.Before(before) {
			t.Error("expected last contacted time to be set to now")
		}
	})

	t.Run("other_users_connection_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestConnection(t, db, owner.ID, "Private", 7, 0)

		_, err := svc.MarkContacted(intruder.ID, created.ID)
		testutil.AssertAppError(t, err, "CONNECTION_NOT_FOUND")
	})
}

func TestDeleteConnection(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestConnection(t, db, user.ID, "Maya", 7, 0)

		testutil.AssertNoError(t, svc.DeleteConnection(user.ID, created.ID))
		_, err := svc.GetConnectionByID(user.ID, created.ID)
		testutil.AssertAppError(t, err, "CONNECTION_NOT_FOUND")
	})

	t.Run("other_users_connection_is_not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewConnectionService(db)

		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestConnection(t, db, owner.ID, "Private", 7, 0)

		testutil.AssertAppError(t, svc.DeleteConnection(intruder.ID, created.ID), "CONNECTION_NOT_FOUND")

		var count int64
		testutil.AssertNoError(t, db.Model(&models.Connection{}).Where("id = ?", created.ID).Count(&count).Error)
		if count != 1 {
			t.Error("expected the connection to survive the failed delete")
		}
	})
}
