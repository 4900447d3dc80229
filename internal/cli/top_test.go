package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/pgtop/internal/activity"
	"github.com/rileyhilliard/pgtop/internal/config"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    activity.QueryMode
		wantErr bool
	}{
		{"", activity.ModeRunning, false},
		{"running", activity.ModeRunning, false},
		{"Waiting", activity.ModeWaiting, false},
		{"BLOCKING", activity.ModeBlocking, false},
		{"locks", activity.ModeRunning, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mode, err := parseMode(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, mode)
		})
	}
}

func TestConnString(t *testing.T) {
	tests := []struct {
		name string
		conn config.ConnectionConfig
		want string
	}{
		{
			name: "everything set",
			conn: config.ConnectionConfig{Host: "db.internal", Port: 5433, User: "admin", Database: "orders"},
			want: "application_name=pgtop host=db.internal port=5433 user=admin dbname=orders",
		},
		{
			name: "defaults omitted",
			conn: config.ConnectionConfig{},
			want: "application_name=pgtop",
		},
		{
			name: "socket with port",
			conn: config.ConnectionConfig{Port: 5432},
			want: "application_name=pgtop port=5432",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, connString(tt.conn))
		})
	}
}

func TestDescribeTarget(t *testing.T) {
	assert.Equal(t, "the local server", describeTarget(config.ConnectionConfig{Port: 5432}))
	assert.Equal(t, "db.internal:5433", describeTarget(config.ConnectionConfig{Host: "db.internal", Port: 5433}))
	assert.Equal(t, "db.internal", describeTarget(config.ConnectionConfig{Host: "db.internal"}))
}

func TestParsePID(t *testing.T) {
	pid, err := parsePID("12345")
	require.NoError(t, err)
	assert.Equal(t, int32(12345), pid)

	_, err = parsePID("abc")
	assert.Error(t, err)

	_, err = parsePID("-7")
	assert.Error(t, err)

	_, err = parsePID("0")
	assert.Error(t, err)
}
