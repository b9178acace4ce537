package assistant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/worldofchami/paychat/pkg/models"
	"github.com/worldofchami/paychat/pkg/observability"
)

// Assistant answers one chat turn. It keeps no state between calls.
type Assistant struct {
	model      Model
	dispatcher *Dispatcher
	catalog    *models.Catalog
	account    string
	logger     *zap.Logger
}

func New(model Model, dispatcher *Dispatcher, catalog *models.Catalog, account string, logger *zap.Logger) *Assistant {
	return &Assistant{
		model:      model,
		dispatcher: dispatcher,
		catalog:    catalog,
		account:    account,
		logger:     observability.OrNop(logger),
	}
}

// Reply builds the model request, asks the model and dispatches its decision.
// Only model failures are returned as errors.
func (a *Assistant) Reply(ctx context.Context, message string, history []Message) (string, error) {
	req := BuildRequest(a.catalog, a.account, history, message)

	decision, err := a.model.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("assistant: model completion: %w", err)
	}

	if decision.ToolCall != nil {
		a.logger.Debug("model requested tool", zap.String("tool", decision.ToolCall.Name))
	}
	return a.dispatcher.Dispatch(ctx, decision), nil
}
