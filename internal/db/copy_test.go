package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyRows_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := CopyRows(context.Background(), mock, "campaign_run_leads", []string{"run_id", "lead_id"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"run_id", "lead_id"}
	mock.ExpectCopyFrom(pgx.Identifier{"campaign_run_leads"}, cols).WillReturnResult(2)

	n, err := CopyRows(context.Background(), mock, "campaign_run_leads", cols, [][]any{
		{"run-1", "lead-1"},
		{"run-1", "lead-2"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyRows_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"run_id", "lead_id"}
	mock.ExpectCopyFrom(pgx.Identifier{"campaign_run_leads"}, cols).WillReturnError(assert.AnError)

	_, err = CopyRows(context.Background(), mock, "campaign_run_leads", cols, [][]any{{"run-1", "lead-1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy into campaign_run_leads")
}
