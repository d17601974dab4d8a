package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"modguard/internal/domain/moderation"
	"modguard/internal/errs"
	"modguard/internal/infrastructure/persistence/sqlite/model"
	"modguard/internal/ports"
)

type ModerationRepository struct {
	db *gorm.DB
}

var _ ports.ModerationRepository = (*ModerationRepository)(nil)

func NewModerationRepository(db *gorm.DB) *ModerationRepository {
	return &ModerationRepository{db: db}
}

func (r *ModerationRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

func (r *ModerationRepository) FindRequestByFingerprint(ctx context.Context, fingerprint string) (ports.ModerationRequest, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ModerationRequest{}, err
	}

	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return ports.ModerationRequest{}, errors.New("fingerprint is required")
	}

	var row model.Request
	if err := db.Where("content_fingerprint = ?", fingerprint).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ModerationRequest{}, ports.ErrRequestNotFound
		}
		return ports.ModerationRequest{}, errs.Wrap(err, "query request by fingerprint")
	}

	return mapRequest(row), nil
}

func (r *ModerationRepository) GetRequest(ctx context.Context, requestID uint64) (ports.ModerationRequest, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ModerationRequest{}, err
	}

	var row model.Request
	if err := db.Where("request_id = ?", requestID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ModerationRequest{}, ports.ErrRequestNotFound
		}
		return ports.ModerationRequest{}, errs.Wrap(err, "query request by id")
	}

	return mapRequest(row), nil
}

func (r *ModerationRepository) GetResultByRequest(ctx context.Context, requestID uint64) (ports.ModerationResult, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ModerationResult{}, err
	}

	var row model.Result
	if err := db.Where("request_id = ?", requestID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ModerationResult{}, ports.ErrResultNotFound
		}
		return ports.ModerationResult{}, errs.Wrap(err, "query result by request")
	}

	return mapResult(row), nil
}

// CreateRequest inserts a new request row. The unique index on
// content_fingerprint arbitrates concurrent submissions of identical
// content: the insert is conflict-do-nothing and a zero rows-affected
// outcome is reported as ports.ErrDuplicateFingerprint.
func (r *ModerationRepository) CreateRequest(ctx context.Context, input ports.ModerationRequestCreate) (ports.ModerationRequest, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ModerationRequest{}, err
	}

	row := model.Request{
		SubmitterID: input.SubmitterID,
		ContentType: string(input.ContentType),
		Fingerprint: input.Fingerprint,
		Status:      string(input.Status),
	}

	result := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "content_fingerprint"}},
		DoNothing: true,
	}).Create(&row)
	if result.Error != nil {
		return ports.ModerationRequest{}, errs.Wrap(result.Error, "insert request")
	}
	if result.RowsAffected == 0 {
		return ports.ModerationRequest{}, ports.ErrDuplicateFingerprint
	}

	return mapRequest(row), nil
}

func (r *ModerationRepository) AttachResult(ctx context.Context, input ports.ModerationResultCreate) (ports.ModerationResult, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.ModerationResult{}, err
	}

	row := model.Result{
		RequestID:      input.RequestID,
		Classification: string(input.Classification),
		Confidence:     input.Confidence,
		Reasoning:      input.Reasoning,
		RawResponse:    input.RawResponse,
	}
	if err := db.Create(&row).Error; err != nil {
		return ports.ModerationResult{}, errs.Wrap(err, "insert result")
	}

	return mapResult(row), nil
}

func (r *ModerationRepository) SetRequestStatus(ctx context.Context, requestID uint64, status moderation.Status) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	result := db.Model(&model.Request{}).
		Where("request_id = ?", requestID).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return errs.Wrap(result.Error, "update request status")
	}
	if result.RowsAffected == 0 {
		return ports.ErrRequestNotFound
	}
	return nil
}

func (r *ModerationRepository) AppendNotificationLog(ctx context.Context, input ports.NotificationLogCreate) error {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return err
	}

	row := model.NotificationLog{
		RequestID:    input.RequestID,
		Channel:      string(input.Channel),
		Status:       string(input.Status),
		ErrorMessage: input.ErrorMessage,
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert notification log")
	}
	return nil
}

func (r *ModerationRepository) CountRequestsBySubmitter(ctx context.Context, submitterID string) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Request{}).
		Where("submitter_id = ?", submitterID).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count requests by submitter")
	}
	return count, nil
}

func (r *ModerationRepository) CountResultsBySubmitter(ctx context.Context, submitterID string, flagged bool) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	query := db.Model(&model.Result{}).
		Joins("JOIN moderation_requests ON moderation_requests.request_id = moderation_results.request_id").
		Where("moderation_requests.submitter_id = ?", submitterID)
	if flagged {
		query = query.Where("moderation_results.classification <> ?", string(moderation.ClassificationSafe))
	} else {
		query = query.Where("moderation_results.classification = ?", string(moderation.ClassificationSafe))
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count results by submitter")
	}
	return count, nil
}

func (r *ModerationRepository) CountRequestsByStatus(ctx context.Context, submitterID string, status moderation.Status) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.Request{}).
		Where("submitter_id = ? AND status = ?", submitterID, string(status)).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count requests by status")
	}
	return count, nil
}

func (r *ModerationRepository) ListRecentRequests(ctx context.Context, submitterID string, limit int) ([]ports.ModerationRequest, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Request{}).
		Where("submitter_id = ?", submitterID).
		Order("created_at desc, request_id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []model.Request
	if err := query.Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query recent requests")
	}

	items := make([]ports.ModerationRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapRequest(row))
	}
	return items, nil
}

// DeleteRequestsBefore removes requests created before the cutoff along
// with their owned results and notification logs. Run it inside a unit
// of work so the three deletes commit together.
func (r *ModerationRepository) DeleteRequestsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return 0, err
	}

	aged := db.Model(&model.Request{}).
		Select("request_id").
		Where("created_at < ?", cutoff)

	if err := db.Where("request_id IN (?)", aged).Delete(&model.NotificationLog{}).Error; err != nil {
		return 0, errs.Wrap(err, "delete aged notification logs")
	}
	if err := db.Where("request_id IN (?)", aged).Delete(&model.Result{}).Error; err != nil {
		return 0, errs.Wrap(err, "delete aged results")
	}

	result := db.Where("created_at < ?", cutoff).Delete(&model.Request{})
	if result.Error != nil {
		return 0, errs.Wrap(result.Error, "delete aged requests")
	}
	return result.RowsAffected, nil
}

func mapRequest(row model.Request) ports.ModerationRequest {
	return ports.ModerationRequest{
		RequestID:   row.RequestID,
		SubmitterID: row.SubmitterID,
		ContentType: moderation.ContentType(row.ContentType),
		Fingerprint: row.Fingerprint,
		Status:      moderation.Status(row.Status),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func mapResult(row model.Result) ports.ModerationResult {
	return ports.ModerationResult{
		ResultID:       row.ResultID,
		RequestID:      row.RequestID,
		Classification: moderation.Classification(row.Classification),
		Confidence:     row.Confidence,
		Reasoning:      row.Reasoning,
		RawResponse:    row.RawResponse,
		CreatedAt:      row.CreatedAt,
	}
}
