package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "intouch/internal/errors"
	"intouch/internal/models"
	"intouch/internal/pagination"
)

const (
	maxConnectionNameLen = 100
	maxConnectionTypeLen = 50
	maxKnowFromLen       = 255
	searchLimit          = 50

	defaultConnectionType = "acquaintance"
)

// connectionService handles connection business logic.
type connectionService struct {
	db       *gorm.DB
	rankExpr string
}

// NewConnectionService creates a new ConnectionServicer.
func NewConnectionService(db *gorm.DB) ConnectionServicer {
	return &connectionService{db: db, rankExpr: rankOrderExpr(db.Dialector.Name())}
}

// rankOrderExpr builds the ORDER BY expression for the composite rank score:
// half the reach-out priority plus half the overdue days (days since last
// contact, or creation when never contacted, minus the reminder frequency).
// Ties break on connection name ascending. The day arithmetic is the only
// dialect-specific piece: postgres extracts epoch seconds, sqlite (the test
// harness) uses julian day numbers.
func rankOrderExpr(dialect string) string {
	switch dialect {
	case "sqlite", "sqlite3":
		return "(reach_out_priority * 0.5) + " +
			"(0.5 * ((julianday('now') - julianday(COALESCE(last_contacted_at, created_at))) - reminder_frequency_days)) DESC, " +
			"connection_name ASC"
	default:
		return "(reach_out_priority * 0.5) + " +
			"(0.5 * (EXTRACT(EPOCH FROM (NOW() - COALESCE(last_contacted_at, created_at)))/86400 - reminder_frequency_days)) DESC, " +
			"connection_name ASC"
	}
}

// ListConnections returns one fixed-size page of the user's connections in
// rank order. One extra row is fetched to detect the next page without a
// count query.
func (s *connectionService) ListConnections(userID uint, page pagination.Page) (*pagination.Response[ConnectionListItem], error) {
	var items []ConnectionListItem
	err := s.db.Model(&models.Connection{}).
		Select("id, connection_name, reach_out_priority, reminder_frequency_days, created_at, last_contacted_at").
		Where("user_id = ?", userID).
		Order(s.rankExpr).
		Scopes(pagination.Paginate(page)).
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewResponse(items, page)
	return &result, nil
}

// SearchConnections returns up to 50 connections whose name contains the
// query, case-insensitively, in the same rank order as the listing.
func (s *connectionService) SearchConnections(userID uint, query string) ([]ConnectionListItem, error) {
	items := []ConnectionListItem{}
	err := s.db.Model(&models.Connection{}).
		Select("id, connection_name, reach_out_priority, reminder_frequency_days, created_at, last_contacted_at").
		Where("user_id = ? AND LOWER(connection_name) LIKE LOWER(?)", userID, "%"+query+"%").
		Order(s.rankExpr).
		Limit(searchLimit).
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return items, nil
}

// CreateConnection validates against the storage constraints and inserts the
// connection for the owner. Optional text fields are stored as empty strings
// (or the "acquaintance" default), never NULL.
func (s *connectionService) CreateConnection(userID uint, in ConnectionCreate) (*models.Connection, error) {
	if in.Name == "" || len(in.Name) > maxConnectionNameLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid connection_name (required, max 100 chars)")
	}
	if in.ReminderFrequencyDays <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid reminder_frequency_days (must be integer > 0)")
	}
	if in.ReachOutPriority < 0 || in.ReachOutPriority > 10 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid reach_out_priority (0..10)")
	}
	if len(in.Type) > maxConnectionTypeLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid connection_type (max 50 chars)")
	}
	if len(in.KnowFrom) > maxKnowFromLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid know_from (max 255 chars)")
	}

	connType := in.Type
	if connType == "" {
		connType = defaultConnectionType
	}

	connection := &models.Connection{
		UserID:                userID,
		Name:                  in.Name,
		ReminderFrequencyDays: in.ReminderFrequencyDays,
		ReachOutPriority:      in.ReachOutPriority,
		Notes:                 in.Notes,
		Type:                  connType,
		KnowFrom:              in.KnowFrom,
	}

	if err := s.db.Create(connection).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return connection, nil
}

// GetConnectionByID retrieves the full row, scoped by id and owner. A
// connection owned by someone else is a 404, never a 403.
func (s *connectionService) GetConnectionByID(userID, connectionID uint) (*models.Connection, error) {
	var connection models.Connection
	if err := s.db.Where("id = ? AND user_id = ?", connectionID, userID).First(&connection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrConnectionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &connection, nil
}

// UpdateConnection applies a partial update; every omitted field keeps its
// stored value.
func (s *connectionService) UpdateConnection(userID, connectionID uint, in ConnectionUpdate) (*models.Connection, error) {
	if in.Name != nil && (*in.Name == "" || len(*in.Name) > maxConnectionNameLen) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid connection_name (max 100 chars)")
	}
	if in.ReminderFrequencyDays != nil && *in.ReminderFrequencyDays <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid reminder_frequency_days (must be integer > 0)")
	}
	if in.ReachOutPriority != nil && (*in.ReachOutPriority < 0 || *in.ReachOutPriority > 10) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid reach_out_priority (0..10)")
	}
	if in.Type != nil && len(*in.Type) > maxConnectionTypeLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid connection_type (max 50 chars)")
	}
	if in.KnowFrom != nil && len(*in.KnowFrom) > maxKnowFromLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid know_from (max 255 chars)")
	}

	connection, err := s.GetConnectionByID(userID, connectionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if in.Name != nil {
		updates["connection_name"] = *in.Name
	}
	if in.ReminderFrequencyDays != nil {
		updates["reminder_frequency_days"] = *in.ReminderFrequencyDays
	}
	if in.ReachOutPriority != nil {
		updates["reach_out_priority"] = *in.ReachOutPriority
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Type != nil {
		updates["connection_type"] = *in.Type
	}
	if in.KnowFrom != nil {
		updates["know_from"] = *in.KnowFrom
	}

	if len(updates) > 0 {
		if err := s.db.Model(connection).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return connection, nil
}

// MarkContacted records a reach-out by setting the last-contacted timestamp
// to now.
func (s *connectionService) MarkContacted(userID, connectionID uint) (*models.Connection, error) {
	connection, err := s.GetConnectionByID(userID, connectionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.db.Model(connection).Update("last_contacted_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	connection.LastContactedAt = &now
	return connection, nil
}

// DeleteConnection deletes the connection, scoped by id and owner.
func (s *connectionService) DeleteConnection(userID, connectionID uint) error {
	result := s.db.Where("id = ? AND user_id = ?", connectionID, userID).Delete(&models.Connection{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrConnectionNotFound
	}
	return nil
}
