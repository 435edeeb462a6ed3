package interactionengine

import (
	"context"
	"log/slog"

	httpadapter "qconnect/contexts/community-experience/interaction-engine/adapters/http"
	"qconnect/contexts/community-experience/interaction-engine/adapters/memory"
	"qconnect/contexts/community-experience/interaction-engine/application/commands"
	"qconnect/contexts/community-experience/interaction-engine/application/session"
	"qconnect/contexts/community-experience/interaction-engine/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Sessions *session.Manager
	Store    *memory.Store
}

type Dependencies struct {
	Items       ports.ItemReader
	Votes       ports.VoteRepository
	Memberships ports.MembershipRepository
	Sink        ports.ChangeSink
	Clock       ports.Clock
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	sessions := &session.Manager{
		Template: session.Dependencies{
			Items:       deps.Items,
			Votes:       deps.Votes,
			Memberships: deps.Memberships,
			Sink:        deps.Sink,
			Clock:       deps.Clock,
			Logger:      deps.Logger,
		},
	}
	return Module{
		Handler: httpadapter.Handler{
			Sessions: sessions,
			Items:    deps.Items,
			Logger:   deps.Logger,
		},
		Sessions: sessions,
	}
}

// NewInMemoryModule loads source into a shared in-process collection. Change
// notifications go to outbox, or to the store's own outbox when nil.
func NewInMemoryModule(
	ctx context.Context,
	source ports.CollectionSource,
	outbox ports.OutboxWriter,
	logger *slog.Logger,
) (Module, error) {
	store, err := memory.NewStoreFromSource(ctx, source)
	if err != nil {
		return Module{}, err
	}
	if outbox == nil {
		outbox = store
	}
	module := NewModule(Dependencies{
		Items:       store,
		Votes:       store,
		Memberships: store,
		Sink:        commands.OutboxChangeSink{Outbox: outbox, IDGen: store},
		Clock:       store,
		Logger:      logger,
	})
	module.Store = store
	return module, nil
}
