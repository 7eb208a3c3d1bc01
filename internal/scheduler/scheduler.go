// Package scheduler implements the sync scheduler (§4.J): a long-lived
// ticker that, on each tick, selects eligible users from the tenant
// registry and runs a bounded-concurrency per-user email ingestion pass.
package scheduler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/walterra/eddo-core/internal/audit"
	"github.com/walterra/eddo-core/internal/docstore"
	"github.com/walterra/eddo-core/internal/email"
	"github.com/walterra/eddo-core/internal/obslog"
	"github.com/walterra/eddo-core/internal/registry"
	"github.com/walterra/eddo-core/internal/todo"
)

var tracer = otel.Tracer("eddo/scheduler")

// Config tunes the scheduler loop.
type Config struct {
	TickInterval      time.Duration
	DefaultSyncGap    time.Duration
	Concurrency       int64
	OAuthCredentials  email.OAuthCredentials
	DefaultTags       []string
	FetchTimeout      time.Duration
}

// DefaultConfig mirrors the knobs internal/config.Load resolves from the
// environment.
func DefaultConfig() Config {
	return Config{
		TickInterval:   time.Minute,
		DefaultSyncGap: 15 * time.Minute,
		Concurrency:    8,
		DefaultTags:    []string{"source:email", "gtd:next"},
		FetchTimeout:   30 * time.Second,
	}
}

// Scheduler drives the periodic per-user sync.
type Scheduler struct {
	cfg      Config
	client   *docstore.Client
	reg      *registry.Registry
	prefix   string
	couchURL string
	log      *obslog.Context
}

// New builds a Scheduler over the shared document-store client and tenant
// registry.
func New(cfg Config, client *docstore.Client, reg *registry.Registry, prefix, couchURL string, log *obslog.Context) *Scheduler {
	return &Scheduler{cfg: cfg, client: client, reg: reg, prefix: prefix, couchURL: couchURL, log: log}
}

// Run ticks until ctx is canceled. On shutdown, it stops starting new
// per-user syncs but lets in-flight ones finish within their own
// timeouts — it does not forcibly cancel them.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	entries, err := s.reg.List(ctx)
	if err != nil {
		s.log.WithError(err).Error("scheduler: list registry failed")
		return
	}

	eligible := make([]registry.Entry, 0)
	for _, e := range entries {
		if isEligible(e, s.cfg.DefaultSyncGap) {
			eligible = append(eligible, e)
		}
	}
	if len(eligible) == 0 {
		return
	}

	sem := semaphore.NewWeighted(s.cfg.Concurrency)
	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range eligible {
		entry := entry
		if err := sem.Acquire(gctx, 1); err != nil {
			break // context canceled: stop starting new syncs
		}
		g.Go(func() error {
			defer sem.Release(1)
			s.syncUser(context.WithoutCancel(ctx), entry)
			return nil
		})
	}
	_ = g.Wait()
}

func isEligible(e registry.Entry, gap time.Duration) bool {
	if e.Status != registry.StatusActive {
		return false
	}
	if !e.Preferences.EmailSync || e.Preferences.EmailConfig == nil {
		return false
	}
	if e.Preferences.EmailLastSync == nil {
		return true
	}
	interval := gap
	if e.Preferences.EmailSyncInterval > 0 {
		interval = time.Duration(e.Preferences.EmailSyncInterval) * time.Minute
	}
	return time.Since(*e.Preferences.EmailLastSync) >= interval
}

func (s *Scheduler) syncUser(ctx context.Context, entry registry.Entry) {
	ctx, span := tracer.Start(ctx, "scheduler.syncUser")
	defer span.End()

	cfg := entry.Preferences.EmailConfig
	provider := cfg.Provider
	folder := entry.Preferences.EmailFolder
	if folder == "" {
		folder = email.DefaultFolder
	}
	span.SetAttributes(
		attribute.String("user.id", entry.ID),
		attribute.String("user.name", entry.Username),
		attribute.String("email.folder", folder),
		attribute.String("email.provider", provider),
	)

	result, err := s.runSync(ctx, entry, folder)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.WithError(err).WithField("user", entry.Username).Warn("scheduler: per-user sync failed")
		return
	}

	span.SetAttributes(
		attribute.Int("email.fetched", result.fetched),
		attribute.Int("email.created", result.created),
		attribute.Int("email.skipped", result.skipped),
		attribute.Int("email.errors", result.errors),
	)
}

type syncResult struct {
	fetched, created, skipped, errors int
}

func (s *Scheduler) runSync(ctx context.Context, entry registry.Entry, folder string) (syncResult, error) {
	prefCfg := entry.Preferences.EmailConfig
	imapUser := prefCfg.ImapUser
	if imapUser == "" {
		imapUser = prefCfg.OAuthEmail
	}

	cfg := email.Config{
		Provider:        email.Provider(prefCfg.Provider),
		Host:            prefCfg.Host,
		Port:            prefCfg.Port,
		ImapUser:        imapUser,
		Password:        prefCfg.ImapPassword,
		Folder:          folder,
		ProcessedFolder: entry.Preferences.Extra["emailProcessedFolder"],
	}

	accessToken := ""
	if cfg.Provider == email.ProviderGmail {
		var err error
		accessToken, err = email.RefreshAccessToken(ctx, s.cfg.OAuthCredentials, prefCfg.RefreshToken)
		if err != nil {
			return syncResult{}, err
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	conn, err := email.Connect(fetchCtx, cfg, accessToken)
	if err != nil {
		return syncResult{}, err
	}
	defer func() { _ = conn.Close() }()

	items, err := conn.FetchUnread(fetchCtx)
	if err != nil {
		return syncResult{}, err
	}

	todoStore := todo.New(s.client, s.prefix, entry.Username)
	auditSvc, err := audit.GetService(ctx, s.client, s.couchURL, s.prefix, entry.Username)
	if err != nil {
		return syncResult{}, err
	}

	result := syncResult{fetched: len(items)}
	type created struct {
		uid uint32
		id  string
	}
	var createdItems []created

	tags := s.cfg.DefaultTags
	for _, item := range items {
		externalID := email.GenerateExternalID(item)
		existing, err := todoStore.FindByExternalID(ctx, externalID)
		if err != nil {
			result.errors++
			continue
		}
		if existing != nil {
			result.skipped++
			continue
		}

		newTodo := email.MapEmailToTodo(item, tags)
		saved, err := todoStore.Create(ctx, newTodo)
		if err != nil {
			result.errors++
			continue
		}
		_, _ = auditSvc.Insert(ctx, audit.Entry{
			Timestamp:  time.Now().UTC(),
			Action:     audit.ActionCreate,
			EntityType: "todo",
			EntityID:   saved.ID,
			Source:     audit.SourceEmailSync,
		})
		result.created++
		createdItems = append(createdItems, created{uid: item.UID, id: saved.ID})
	}

	if len(createdItems) > 0 {
		uids := make([]uint32, len(createdItems))
		for i, c := range createdItems {
			uids[i] = c.uid
		}
		moveResult := conn.MoveToProcessed(ctx, cfg, uids)
		for _, movedUID := range moveResult.Moved {
			for _, c := range createdItems {
				if c.uid == movedUID {
					_, patchErr := todoStore.Update(ctx, c.id, todo.Patch{
						Metadata: map[string]interface{}{"moved": true},
					})
					if patchErr != nil {
						s.log.WithError(patchErr).Warn("scheduler: best-effort moved-marker patch failed")
					}
				}
			}
		}
	}

	now := time.Now().UTC()
	if _, err := s.reg.Update(ctx, entry.ID, registry.Patch{
		Preferences: &registry.Preferences{
			EmailSync:         entry.Preferences.EmailSync,
			EmailConfig:       entry.Preferences.EmailConfig,
			EmailFolder:       entry.Preferences.EmailFolder,
			EmailSyncInterval: entry.Preferences.EmailSyncInterval,
			EmailSyncTags:     entry.Preferences.EmailSyncTags,
			EmailLastSync:     &now,
			Extra:             entry.Preferences.Extra,
		},
	}); err != nil {
		return result, err
	}

	return result, nil
}
