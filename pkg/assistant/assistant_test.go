package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worldofchami/paychat/pkg/models"
)

func TestReplyIsDeterministicForIdenticalInputs(t *testing.T) {
	history := []Message{{Role: RoleUser, Content: "show my orders"}}

	for name, decision := range map[string]Decision{
		"text":         {Text: "Here you go"},
		"transactions": toolDecision(string(KindFetchTransactions), "{}"),
		"refund":       toolDecision(string(KindRefund), `{"capture_id":"CAP123"}`),
	} {
		t.Run(name, func(t *testing.T) {
			gw := &fakeGateway{
				refund: &models.Refund{ID: "REF1"},
				transactions: []models.TransactionRecord{
					{TransactionID: "TX1", Status: "S", Gross: "25.00", Currency: "USD", Timestamp: "2026-10-01T05:04:00+0000", ProductName: "Yoga Mat"},
				},
			}
			model := &stubModel{decision: decision}
			a := New(model, NewDispatcher(testCatalog(), gw), testCatalog(), testAccount, nil)

			first, err := a.Reply(context.Background(), "again", history)
			require.NoError(t, err)
			firstReq := model.last

			second, err := a.Reply(context.Background(), "again", history)
			require.NoError(t, err)

			assert.Equal(t, first, second)
			assert.Equal(t, firstReq, model.last)
			assert.Len(t, history, 1)
		})
	}
}

func TestReplySendsBuiltRequest(t *testing.T) {
	model := &stubModel{decision: Decision{Text: "hello"}}
	a := New(model, NewDispatcher(testCatalog(), &fakeGateway{}), testCatalog(), testAccount, nil)

	reply, err := a.Reply(context.Background(), "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", reply)
	assert.Equal(t, BuildRequest(testCatalog(), testAccount, nil, "hi"), model.last)
}

func TestReplyReturnsModelError(t *testing.T) {
	gw := &fakeGateway{}
	model := &stubModel{err: errors.New("rate limited")}
	a := New(model, NewDispatcher(testCatalog(), gw), testCatalog(), testAccount, nil)

	_, err := a.Reply(context.Background(), "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Zero(t, gw.callCount())
}
