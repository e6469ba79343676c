package database

import (
	"database/sql"
	"fmt"
	"time"
)

const accountColumns = "id, username, email, password_hash, role, enabled, created_at, updated_at"

func scanAccount(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.PasswordHash,
		&u.Role,
		&u.Enabled,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgPortalRepository) CreateAccount(params CreateAccountParams) (User, error) {
	row := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, role, enabled, created_at) "+
			"VALUES ($1, $2, $3, $4, TRUE, $5) RETURNING "+accountColumns,
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Role,
		time.Now().UTC(),
	)

	return scanAccount(row)
}

func (db *PgPortalRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT "+accountColumns+" FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	return scanAccount(row)
}

func (db *PgPortalRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT "+accountColumns+" FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	return scanAccount(row)
}

func (db *PgPortalRepository) UpdatePassword(params UpdatePasswordParams) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET password_hash = $2, reset_code = NULL, "+
			"reset_code_expires_at = NULL, updated_at = $3 WHERE id = $1",
		params.UserId,
		params.PasswordHash,
		time.Now().UTC(),
	)

	return err
}

func (db *PgPortalRepository) SetResetCode(params SetResetCodeParams) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET reset_code = $2, reset_code_expires_at = $3, "+
			"updated_at = $4 WHERE id = $1",
		params.UserId,
		params.Code,
		params.ExpiresAt,
		time.Now().UTC(),
	)

	return err
}

func (db *PgPortalRepository) GetAccountByResetCode(code string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT "+accountColumns+" FROM accounts "+
			"WHERE reset_code = $1 AND reset_code_expires_at > $2 LIMIT 1",
		code,
		time.Now().UTC(),
	)

	return scanAccount(row)
}

const notificationColumns = "id, recipient_id, type, title, content, " +
	"related_id, related_type, is_read, created_at, read_at"

func scanNotification(row *sql.Row) (Notification, error) {
	var n Notification
	err := row.Scan(
		&n.Id,
		&n.RecipientId,
		&n.Type,
		&n.Title,
		&n.Content,
		&n.RelatedId,
		&n.RelatedType,
		&n.IsRead,
		&n.CreatedAt,
		&n.ReadAt,
	)

	return n, err
}

func (db *PgPortalRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	var relatedId sql.NullInt64
	if params.RelatedId != 0 {
		relatedId = sql.NullInt64{Int64: int64(params.RelatedId), Valid: true}
	}

	var relatedType sql.NullString
	if params.RelatedType != "" {
		relatedType = sql.NullString{String: params.RelatedType, Valid: true}
	}

	row := db.conn.QueryRow(
		"INSERT INTO notifications (recipient_id, type, title, content, related_id, related_type, is_read, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7) RETURNING "+notificationColumns,
		params.RecipientId,
		params.Type,
		params.Title,
		params.Content,
		relatedId,
		relatedType,
		time.Now().UTC(),
	)

	return scanNotification(row)
}

func (db *PgPortalRepository) GetNotificationById(id int) (Notification, error) {
	row := db.conn.QueryRow(
		"SELECT "+notificationColumns+" FROM notifications "+
			"WHERE id = $1 LIMIT 1",
		id,
	)

	return scanNotification(row)
}

// MarkNotificationRead transitions a single notification to read. The
// update is conditional on the current unread state so concurrent calls
// cannot overwrite the first read_at stamp; it reports whether this
// call performed the transition.
func (db *PgPortalRepository) MarkNotificationRead(id int, readAt time.Time) (bool, error) {
	res, err := db.conn.Exec(
		"UPDATE notifications SET is_read = TRUE, read_at = $2 "+
			"WHERE id = $1 AND is_read = FALSE",
		id,
		readAt,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (db *PgPortalRepository) MarkAllNotificationsRead(recipientId int, readAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE notifications SET is_read = TRUE, read_at = $2 "+
			"WHERE recipient_id = $1 AND is_read = FALSE",
		recipientId,
		readAt,
	)

	return err
}

func (db *PgPortalRepository) CountUnreadNotifications(recipientId int) (int, error) {
	row := db.conn.QueryRow(
		"SELECT COUNT(*) FROM notifications "+
			"WHERE recipient_id = $1 AND is_read = FALSE",
		recipientId,
	)

	var count int
	err := row.Scan(&count)

	return count, err
}

func (db *PgPortalRepository) ListNotifications(params ListNotificationsParams) ([]Notification, error) {
	query := "SELECT " + notificationColumns + " FROM notifications WHERE recipient_id = $1"
	args := []any{params.RecipientId}

	if params.IsRead != nil {
		args = append(args, *params.IsRead)
		query += fmt.Sprintf(" AND is_read = $%d", len(args))
	}
	if params.Type != "" {
		args = append(args, params.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}

	query += " ORDER BY created_at DESC"

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, params.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		err := rows.Scan(
			&n.Id,
			&n.RecipientId,
			&n.Type,
			&n.Title,
			&n.Content,
			&n.RelatedId,
			&n.RelatedType,
			&n.IsRead,
			&n.CreatedAt,
			&n.ReadAt,
		)
		if err != nil {
			return nil, err
		}

		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}
