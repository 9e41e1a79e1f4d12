package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/castellan/castellan/internal/admin/domain"
	httpapi "github.com/castellan/castellan/internal/admin/http"
)

var errBootstrapFailed = errors.New("app: bootstrap failed")

// bootstrap seeds a first admin client when the store holds no clients and a
// bootstrap client id is configured. The seeded client carries both admin
// authorities plus the client_credentials grant so it can drive the API
// immediately. Subsequent starts are no-ops.
func (app *Application) bootstrap(ctx context.Context) error {
	if app.cfg.BootstrapClientID == "" {
		return nil
	}

	empty, err := app.db.Clients().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		app.logger.Debug("clients already present, skipping bootstrap")
		return nil
	}

	grant, err := app.ensureReference(ctx, domain.KindGrantType, "client_credentials")
	if err != nil {
		return err
	}
	read, err := app.ensureReference(ctx, domain.KindAuthority, httpapi.ReadAuthority)
	if err != nil {
		return err
	}
	write, err := app.ensureReference(ctx, domain.KindAuthority, httpapi.WriteAuthority)
	if err != nil {
		return err
	}

	res, secret := app.clientService.Create(ctx, domain.Client{
		ClientID:    app.cfg.BootstrapClientID,
		GrantTypes:  []domain.Reference{grant},
		Authorities: []domain.Reference{read, write},
	}, app.cfg.BootstrapSecret)
	if res.Rejected() {
		app.logger.Error("failed to seed bootstrap client",
			slog.String("client_id", app.cfg.BootstrapClientID),
			slog.Any("errors", res.Errors()))
		return errBootstrapFailed
	}

	if app.cfg.BootstrapSecret == "" {
		// Generated secrets are recoverable only from this log line.
		app.logger.Info("bootstrap client seeded with generated secret",
			slog.String("client_id", app.cfg.BootstrapClientID),
			slog.String("client_secret", secret))
	} else {
		app.logger.Info("bootstrap client seeded",
			slog.String("client_id", app.cfg.BootstrapClientID))
	}
	return nil
}

// ensureReference returns the named reference, creating it if absent.
func (app *Application) ensureReference(ctx context.Context, kind domain.Kind, name string) (domain.Reference, error) {
	svc := app.referenceServices[kind]

	found := svc.FindByName(ctx, name)
	if found.Accepted() {
		return found.Instance(), nil
	}

	created := svc.Create(ctx, domain.Reference{Name: name})
	if created.Rejected() {
		app.logger.Error("failed to seed reference",
			slog.String("kind", string(kind)),
			slog.String("name", name),
			slog.Any("errors", created.Errors()))
		return domain.Reference{}, errBootstrapFailed
	}
	return created.Instance(), nil
}
