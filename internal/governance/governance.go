// Package governance is the restriction and approval engine behind the
// administrative control plane. Every state transition here commits the
// affected records (account, flag/ban/request, audit entry) as one atomic
// unit; presentation layers only ever read the resulting state.
package governance

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/veltacap/custodian/internal/models"
	"github.com/veltacap/custodian/internal/repository"
)

// Notifier pushes freshly committed state to live subscribers so they can
// re-evaluate what an account is allowed to do without polling.
type Notifier interface {
	AccountChanged(account *models.Account) error
	ControlsChanged(controls *models.SystemControls) error
}

// EventPublisher feeds governance events to external consumers (the
// notification pipeline lives outside this service). Publishing is
// fire-and-forget: a publish failure never rolls back a committed mutation.
type EventPublisher interface {
	Publish(topic string, message string) error
}

type Engine struct {
	db       repository.Database
	logger   *slog.Logger
	notifier Notifier
	events   EventPublisher

	handlers map[models.ApprovalKind]ApprovalHandler
}

func New(db repository.Database, logger *slog.Logger, notifier Notifier, events EventPublisher) *Engine {
	e := &Engine{
		db:       db,
		logger:   logger,
		notifier: notifier,
		events:   events,
	}

	e.handlers = map[models.ApprovalKind]ApprovalHandler{
		models.KindCryptoWallet:       &walletChangeHandler{engine: e},
		models.KindAccountCreation:    &accountCreationHandler{engine: e},
		models.KindWithdrawalOverride: &withdrawalOverrideHandler{engine: e},
		models.KindDocumentRequest:    &documentRequestHandler{engine: e},
	}

	return e
}

// event topics
const (
	TopicFlag     = "governance.flag"
	TopicBan      = "governance.ban"
	TopicLockdown = "governance.lockdown"
	TopicApproval = "governance.approval"
)

// audit writes the audit entry inside the same transaction as the mutation
// it documents. A mutation without its entry, or an entry without its
// mutation, would be a correctness bug, so this is only ever called with
// the operation's open transaction.
func (e *Engine) audit(tx *sql.Tx, actor models.Actor, action, targetID, targetName, details string) error {
	_, err := e.db.Audit().Insert(&models.AuditLogEntry{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     action,
		TargetID:   targetID,
		TargetName: targetName,
		Details:    details,
	}, tx)

	return err
}

// publishAccount pushes the post-commit account state to subscribers and
// the event stream. Failures are logged and dropped.
func (e *Engine) publishAccount(accountID, topic, message string) {
	if e.events != nil {
		if err := e.events.Publish(topic, message); err != nil {
			e.logger.Error("publish governance event", "topic", topic, "error", err)
		}
	}

	if e.notifier == nil {
		return
	}

	account, found, err := e.db.Account().GetOne(accountID)
	if err != nil || !found {
		e.logger.Error("load account for subscriber push", "account_id", accountID, "error", err)
		return
	}

	if err := e.notifier.AccountChanged(account); err != nil {
		e.logger.Error("push account state", "account_id", accountID, "error", err)
	}
}

func (e *Engine) publishControls(controls *models.SystemControls, message string) {
	if e.events != nil {
		if err := e.events.Publish(TopicLockdown, message); err != nil {
			e.logger.Error("publish governance event", "topic", TopicLockdown, "error", err)
		}
	}

	if e.notifier != nil {
		if err := e.notifier.ControlsChanged(controls); err != nil {
			e.logger.Error("push system controls", "error", err)
		}
	}
}

// runInTx wraps the store's transaction helper and converts commit
// failures into the TransactionError taxonomy. Typed governance errors
// raised inside fn pass through untouched.
func (e *Engine) runInTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	err := e.db.RunInTx(ctx, fn)
	if err == nil {
		return nil
	}

	if IsValidation(err) || IsNotFound(err) || IsConflict(err) {
		return err
	}

	return &TransactionError{Err: err}
}
