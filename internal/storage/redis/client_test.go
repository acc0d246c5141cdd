package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestClient_HealthCheck(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := &Client{Client: db}

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, client.HealthCheck(context.Background()))

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	err := client.HealthCheck(context.Background())
	assert.ErrorContains(t, err, "connection refused")

	assert.NoError(t, mock.ExpectationsWereMet())
}
