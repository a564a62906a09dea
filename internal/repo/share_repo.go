package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/fshare/internal/model"
	"github.com/xxxsen/fshare/internal/pkg/dbutil"
	appErr "github.com/xxxsen/fshare/internal/pkg/errors"
)

var shareColumns = []string{"id", "owner_id", "share_type", "files", "password_hash", "recipients", "ctime", "mtime"}

type ShareRepo struct {
	db *sql.DB
}

func NewShareRepo(db *sql.DB) *ShareRepo {
	return &ShareRepo{db: db}
}

func (r *ShareRepo) Create(ctx context.Context, share *model.Share) error {
	files, err := json.Marshal(share.Files)
	if err != nil {
		return err
	}
	recipients, err := json.Marshal(share.Recipients)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":            share.ID,
		"owner_id":      share.OwnerID,
		"share_type":    share.ShareType,
		"files":         string(files),
		"password_hash": share.PasswordHash,
		"recipients":    string(recipients),
		"ctime":         share.Ctime,
		"mtime":         share.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("shares", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *ShareRepo) GetByID(ctx context.Context, shareID string) (*model.Share, error) {
	where := map[string]interface{}{"id": shareID}
	sqlStr, args, err := builder.BuildSelect("shares", where, shareColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	share, err := scanShare(rows)
	if err != nil {
		return nil, err
	}
	return share, nil
}

func (r *ShareRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Share, error) {
	where := map[string]interface{}{"owner_id": ownerID, "_orderby": "ctime desc"}
	sqlStr, args, err := builder.BuildSelect("shares", where, shareColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := make([]model.Share, 0)
	for rows.Next() {
		share, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *share)
	}
	return items, rows.Err()
}

func (r *ShareRepo) Delete(ctx context.Context, ownerID, shareID string) error {
	where := map[string]interface{}{"id": shareID, "owner_id": ownerID}
	sqlStr, args, err := builder.BuildDelete("shares", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func scanShare(rows *sql.Rows) (*model.Share, error) {
	var share model.Share
	var files, recipients string
	if err := rows.Scan(&share.ID, &share.OwnerID, &share.ShareType, &files, &share.PasswordHash, &recipients, &share.Ctime, &share.Mtime); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(files), &share.Files); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(recipients), &share.Recipients); err != nil {
		return nil, err
	}
	return &share, nil
}
