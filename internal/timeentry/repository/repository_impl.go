package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	timeentrydomain "github.com/smallbiznis/billingengine/internal/timeentry/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() timeentrydomain.Repository {
	return &repo{}
}

func (r *repo) ListBillable(ctx context.Context, db *gorm.DB, companyID, planID snowflake.ID, category *snowflake.ID, start, end time.Time) ([]timeentrydomain.BillableTimeEntry, error) {
	stmt := db.WithContext(ctx).
		Table("time_entries te").
		Select(`te.id, te.user_id, te.service_id, sc.service_name, sc.default_rate, ps.custom_rate,
			COALESCE(sc.tax_region, c.tax_region) AS tax_region, te.start_time, te.end_time,
			COALESCE(pt.task_name, t.title) AS work_item_name`).
		Joins("JOIN users u ON u.id = te.user_id").
		Joins("LEFT JOIN project_tasks pt ON pt.id = te.work_item_id AND te.work_item_type = ?", timeentrydomain.WorkItemTypeProjectTask).
		Joins("LEFT JOIN project_phases ph ON ph.id = pt.phase_id").
		Joins("LEFT JOIN projects p ON p.id = ph.project_id").
		Joins("LEFT JOIN tickets t ON t.id = te.work_item_id AND te.work_item_type = ?", timeentrydomain.WorkItemTypeTicket).
		Joins("JOIN service_catalog sc ON sc.id = te.service_id").
		Joins("JOIN plan_services ps ON ps.service_id = sc.id AND ps.plan_id = ?", planID).
		Joins("LEFT JOIN companies c ON c.id = ?", companyID).
		Where("te.start_time >= ? AND te.end_time < ?", start.UTC(), end.UTC()).
		Where("te.invoiced = ?", false).
		Where("(pt.id IS NOT NULL OR t.id IS NOT NULL)").
		Where("(p.company_id = ? OR t.company_id = ?)", companyID, companyID).
		Where("te.approval_status = ?", timeentrydomain.ApprovalStatusApproved)
	if category != nil {
		stmt = stmt.Where("sc.category_id = ?", *category)
	} else {
		stmt = stmt.Where("sc.category_id IS NULL")
	}

	var rows []timeentrydomain.BillableTimeEntry
	if err := stmt.Order("te.start_time ASC, te.id ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) ListUnapproved(ctx context.Context, db *gorm.DB, companyID snowflake.ID, end time.Time) ([]timeentrydomain.TimeEntry, error) {
	var entries []timeentrydomain.TimeEntry
	err := db.WithContext(ctx).
		Table("time_entries te").
		Select("te.*").
		Joins("LEFT JOIN tickets t ON t.id = te.work_item_id AND te.work_item_type = ?", timeentrydomain.WorkItemTypeTicket).
		Joins("LEFT JOIN project_tasks pt ON pt.id = te.work_item_id AND te.work_item_type = ?", timeentrydomain.WorkItemTypeProjectTask).
		Joins("LEFT JOIN project_phases ph ON ph.id = pt.phase_id").
		Joins("LEFT JOIN projects p ON p.id = ph.project_id").
		Where("(t.company_id = ? OR p.company_id = ?)", companyID, companyID).
		Where("te.approval_status IN ?", timeentrydomain.UnapprovedStatuses).
		Where("te.end_time <= ?", end.UTC()).
		Order("te.start_time ASC, te.id ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) UpdateWindow(ctx context.Context, db *gorm.DB, id snowflake.ID, start, end time.Time, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE time_entries SET start_time = ?, end_time = ?, updated_at = ? WHERE id = ?`,
		start.UTC(),
		end.UTC(),
		updatedAt.UTC(),
		id,
	).Error
}
