package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"agora/contexts/governance/session-engine/domain/entities"
	domainerrors "agora/contexts/governance/session-engine/domain/errors"
	"agora/contexts/governance/session-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository persists sessions, proposals, voters, and the outbox in
// postgres. Dense id assignment happens inside the creation transaction;
// the single-writer use case above it keeps assignments race-free.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateSession inserts the session, its children, and the envelopes built
// for the assigned id in one transaction.
func (r *Repository) CreateSession(ctx context.Context, session entities.Session, events ports.SessionEvents) (entities.Session, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := createSessionTx(tx, session)
		if err != nil {
			return err
		}
		session = stored
		if events == nil {
			return nil
		}
		envelopes, err := events(stored)
		if err != nil {
			return err
		}
		return appendOutboxTx(tx, envelopes)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return entities.Session{}, domainerrors.ErrConflict
		}
		return entities.Session{}, r.logError("session_repo_create_failed", err)
	}
	return session, nil
}

func (r *Repository) GetSession(ctx context.Context, sessionID uint64) (entities.Session, error) {
	var row sessionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", sessionID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Session{}, domainerrors.ErrSessionNotFound
		}
		return entities.Session{}, r.logError("session_repo_get_failed", err, "session_id", sessionID)
	}

	var proposals []proposalModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("proposal_id ASC").
		Find(&proposals).Error; err != nil {
		return entities.Session{}, r.logError("session_repo_get_proposals_failed", err, "session_id", sessionID)
	}
	var voters []voterModel
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&voters).Error; err != nil {
		return entities.Session{}, r.logError("session_repo_get_voters_failed", err, "session_id", sessionID)
	}

	return row.toEntity(proposals, voters), nil
}

// SaveSession replaces the whole session aggregate and appends its envelopes
// in one transaction. Sessions hold at most a few hundred proposal/voter
// rows, so the delete-and-reinsert of children stays cheap and keeps the
// aggregate write atomic.
func (r *Repository) SaveSession(ctx context.Context, session entities.Session, events []ports.EventEnvelope) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveSessionTx(tx, session); err != nil {
			return err
		}
		return appendOutboxTx(tx, events)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("session_repo_save_failed", err, "session_id", session.ID)
	}
	return nil
}

// DeriveSession inserts the child, rewrites the parent returned by the
// completion, and appends the envelopes, all in one transaction. A tie-break
// renewal therefore commits child, parent link, and events together or not
// at all.
func (r *Repository) DeriveSession(ctx context.Context, child entities.Session, complete ports.DeriveCompletion) (entities.Session, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored, err := createSessionTx(tx, child)
		if err != nil {
			return err
		}
		child = stored
		parent, envelopes, err := complete(stored)
		if err != nil {
			return err
		}
		if err := saveSessionTx(tx, parent); err != nil {
			return err
		}
		return appendOutboxTx(tx, envelopes)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return entities.Session{}, domainerrors.ErrConflict
		}
		return entities.Session{}, r.logError("session_repo_derive_failed", err)
	}
	return child, nil
}

func (r *Repository) CountSessions(ctx context.Context) (uint64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&sessionModel{}).Count(&count).Error; err != nil {
		return 0, r.logError("session_repo_count_failed", err)
	}
	return uint64(count), nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	err := appendOutboxTx(r.db.WithContext(ctx), []ports.EventEnvelope{envelope})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			return err
		}
		return r.logError("session_repo_append_outbox_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("session_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("session_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

// createSessionTx assigns the next dense id and inserts the session row with
// its children. Runs inside a caller-owned transaction.
func createSessionTx(tx *gorm.DB, session entities.Session) (entities.Session, error) {
	var next uint64
	if err := tx.Model(&sessionModel{}).
		Select("COALESCE(MAX(id) + 1, 0)").
		Scan(&next).Error; err != nil {
		return entities.Session{}, err
	}
	session.ID = next
	if err := tx.Create(sessionModelFromEntity(session)).Error; err != nil {
		return entities.Session{}, err
	}
	if err := insertChildren(tx, session); err != nil {
		return entities.Session{}, err
	}
	return session, nil
}

// saveSessionTx upserts the session row and replaces its children. Runs
// inside a caller-owned transaction.
func saveSessionTx(tx *gorm.DB, session entities.Session) error {
	row := sessionModelFromEntity(session)
	update := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"parent_id":          row.ParentID,
			"child_id":           row.ChildID,
			"cancelled":          row.Cancelled,
			"state":              row.State,
			"highest_vote_count": row.HighestVoteCount,
			"winning_proposal":   row.WinningProposal,
			"has_winner":         row.HasWinner,
			"updated_at":         row.UpdatedAt,
		}),
	}).Create(row)
	if update.Error != nil {
		return update.Error
	}
	if err := tx.Where("session_id = ?", session.ID).Delete(&proposalModel{}).Error; err != nil {
		return err
	}
	if err := tx.Where("session_id = ?", session.ID).Delete(&voterModel{}).Error; err != nil {
		return err
	}
	return insertChildren(tx, session)
}

// appendOutboxTx inserts pending outbox rows. A replayed id with an
// identical payload is skipped; a differing payload is a conflict.
func appendOutboxTx(tx *gorm.DB, envelopes []ports.EventEnvelope) error {
	for _, envelope := range envelopes {
		payload, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		row := outboxModel{
			OutboxID:     strings.TrimSpace(envelope.EventID),
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			Status:       outboxStatusPending,
			CreatedAt:    envelope.OccurredAt.UTC(),
		}
		if row.OutboxID == "" {
			row.OutboxID = uuid.NewString()
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now().UTC()
		}
		create := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).Create(&row)
		if create.Error != nil {
			return create.Error
		}
		if create.RowsAffected > 0 {
			continue
		}
		var existing outboxModel
		if err := tx.Select("payload").
			Where("outbox_id = ?", row.OutboxID).
			First(&existing).Error; err != nil {
			return err
		}
		if !bytes.Equal(existing.Payload, row.Payload) {
			return domainerrors.ErrConflict
		}
	}
	return nil
}

func insertChildren(tx *gorm.DB, session entities.Session) error {
	if len(session.Proposals) > 0 {
		rows := make([]proposalModel, 0, len(session.Proposals))
		for index, proposal := range session.Proposals {
			rows = append(rows, proposalModel{
				SessionID:   session.ID,
				ProposalID:  uint64(index),
				Description: proposal.Description,
				VoteCount:   proposal.VoteCount,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	if len(session.VoterOrder) > 0 {
		rows := make([]voterModel, 0, len(session.VoterOrder))
		for position, address := range session.VoterOrder {
			record := session.Voters[address]
			rows = append(rows, voterModel{
				SessionID:      session.ID,
				Address:        address,
				Position:       position,
				HasVoted:       record.HasVoted,
				ChosenProposal: record.ChosenProposal,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/session-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("session repository operation failed", fields...)
	return err
}

type sessionModel struct {
	ID               uint64    `gorm:"column:id;primaryKey"`
	ParentID         *uint64   `gorm:"column:parent_id"`
	ChildID          *uint64   `gorm:"column:child_id"`
	Cancelled        bool      `gorm:"column:cancelled"`
	State            int       `gorm:"column:state"`
	HighestVoteCount uint64    `gorm:"column:highest_vote_count"`
	WinningProposal  uint64    `gorm:"column:winning_proposal"`
	HasWinner        bool      `gorm:"column:has_winner"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string {
	return "governance_sessions"
}

type proposalModel struct {
	SessionID   uint64 `gorm:"column:session_id;primaryKey"`
	ProposalID  uint64 `gorm:"column:proposal_id;primaryKey"`
	Description string `gorm:"column:description"`
	VoteCount   uint64 `gorm:"column:vote_count"`
}

func (proposalModel) TableName() string {
	return "governance_session_proposals"
}

type voterModel struct {
	SessionID      uint64 `gorm:"column:session_id;primaryKey"`
	Address        string `gorm:"column:address;primaryKey"`
	Position       int    `gorm:"column:position"`
	HasVoted       bool   `gorm:"column:has_voted"`
	ChosenProposal uint64 `gorm:"column:chosen_proposal"`
}

func (voterModel) TableName() string {
	return "governance_session_voters"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_session_outbox"
}

func sessionModelFromEntity(session entities.Session) *sessionModel {
	row := sessionModel{
		ID:               session.ID,
		Cancelled:        session.Cancelled,
		State:            int(session.State),
		HighestVoteCount: session.HighestVoteCount,
		WinningProposal:  session.WinningProposal,
		HasWinner:        session.HasWinner,
		CreatedAt:        session.CreatedAt.UTC(),
		UpdatedAt:        session.UpdatedAt.UTC(),
	}
	if session.HasParent {
		parentID := session.ParentID
		row.ParentID = &parentID
	}
	if session.HasChild {
		childID := session.ChildID
		row.ChildID = &childID
	}
	return &row
}

func (m sessionModel) toEntity(proposals []proposalModel, voters []voterModel) entities.Session {
	session := entities.Session{
		ID:               m.ID,
		Cancelled:        m.Cancelled,
		State:            entities.WorkflowState(m.State),
		HighestVoteCount: m.HighestVoteCount,
		WinningProposal:  m.WinningProposal,
		HasWinner:        m.HasWinner,
		Proposals:        make([]entities.Proposal, 0, len(proposals)),
		VoterOrder:       make([]string, 0, len(voters)),
		Voters:           make(map[string]entities.VoterRecord, len(voters)),
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
	}
	if m.ParentID != nil {
		session.ParentID = *m.ParentID
		session.HasParent = true
	}
	if m.ChildID != nil {
		session.ChildID = *m.ChildID
		session.HasChild = true
	}
	for _, row := range proposals {
		session.Proposals = append(session.Proposals, entities.Proposal{
			Description: row.Description,
			VoteCount:   row.VoteCount,
		})
	}
	for _, row := range voters {
		session.VoterOrder = append(session.VoterOrder, row.Address)
		session.Voters[row.Address] = entities.VoterRecord{
			Registered:     true,
			HasVoted:       row.HasVoted,
			ChosenProposal: row.ChosenProposal,
		}
	}
	return session
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
