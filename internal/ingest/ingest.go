// Package ingest stores incoming submissions and their attachment files.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dbsmedya/formrows/internal/config"
	"github.com/dbsmedya/formrows/internal/database"
	"github.com/dbsmedya/formrows/internal/lock"
	"github.com/dbsmedya/formrows/internal/logger"
	"github.com/dbsmedya/formrows/internal/metrics"
	"github.com/dbsmedya/formrows/internal/rows"
	"github.com/dbsmedya/formrows/internal/schema"
	"github.com/dbsmedya/formrows/internal/store"
)

// ErrConflict is returned when an instance id is already stored with
// different XML.
var ErrConflict = errors.New("submission already exists with different content")

// Outcome describes what an ingest did with the submission XML.
type Outcome string

const (
	// Created means the submission was new and has been stored.
	Created Outcome = "created"
	// Reposted means identical XML was already stored; only files were handled.
	Reposted Outcome = "reposted"
)

// File is one uploaded attachment.
type File struct {
	Name    string
	Content []byte
}

// Request is one submission upload.
type Request struct {
	FormID     string
	InstanceID string // read from meta/instanceID when empty
	XML        string
	Files      []File
}

// Result reports the attachment state after an ingest.
type Result struct {
	InstanceID string
	Outcome    Outcome
	Expected   []string
	Stored     []string
	Unexpected []string
	Missing    []string
}

// Ingester writes submissions for one form.
type Ingester struct {
	store   *store.Store
	root    *schema.Field
	config  config.IngestConfig
	log     *logger.Logger
	metrics *metrics.Collector

	newBlobID func() string
}

// New creates an Ingester. metrics may be nil.
func New(st *store.Store, root *schema.Field, cfg config.IngestConfig, log *logger.Logger, m *metrics.Collector) *Ingester {
	return &Ingester{
		store:     st,
		root:      root,
		config:    cfg,
		log:       log,
		metrics:   m,
		newBlobID: uuid.NewString,
	}
}

// Ingest stores req. A new instance stores its XML and the attachment names
// its binary fields reference; re-posting identical XML only handles files;
// differing XML for a stored instance fails with ErrConflict. On MySQL the
// whole operation runs under a per-instance advisory lock.
func (i *Ingester) Ingest(ctx context.Context, req Request) (*Result, error) {
	if req.FormID == "" {
		return nil, fmt.Errorf("form id is required")
	}
	if req.XML == "" {
		return nil, fmt.Errorf("submission xml is empty")
	}

	expected, err := rows.Attachments(ctx, i.root, req.XML)
	if err != nil {
		return nil, fmt.Errorf("failed to read submission: %w", err)
	}

	instanceID := req.InstanceID
	if instanceID == "" {
		if instanceID, err = rows.InstanceID(ctx, req.XML); err != nil {
			return nil, err
		}
	}

	log := i.log.WithForm(req.FormID).WithInstance(instanceID)
	result := &Result{InstanceID: instanceID}

	run := func() error {
		return i.ingest(ctx, req, expected, result)
	}
	if i.config.AdvisoryLock && i.store.Driver() == database.MySQL {
		l := lock.NewSubmissionLock(i.store.DB(), req.FormID, instanceID)
		err = l.WithLock(ctx, i.config.LockTimeoutSeconds, run)
	} else {
		err = run()
	}

	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrConflict) {
			outcome = "conflict"
		}
		i.metrics.ObserveIngest(req.FormID, outcome, 0, 0)
		log.Warnw("Ingest failed", "error", err)
		return nil, err
	}

	i.metrics.ObserveIngest(req.FormID, string(result.Outcome), len(result.Stored), len(result.Unexpected))
	log.Infow("Submission ingested",
		"outcome", result.Outcome,
		"stored", len(result.Stored),
		"unexpected", len(result.Unexpected),
		"missing", len(result.Missing),
	)
	for _, name := range result.Unexpected {
		log.Warnw("Ignoring unexpected attachment", "name", name)
	}
	return result, nil
}

func (i *Ingester) ingest(ctx context.Context, req Request, expected []string, result *Result) error {
	existing, err := i.store.GetXML(ctx, req.FormID, result.InstanceID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if err := i.store.CreateSubmission(ctx, req.FormID, result.InstanceID, req.XML, expected); err != nil {
			return err
		}
		result.Outcome = Created
	case err != nil:
		return err
	case existing != req.XML:
		return fmt.Errorf("%w: %s/%s", ErrConflict, req.FormID, result.InstanceID)
	default:
		result.Outcome = Reposted
	}

	attachments, err := i.store.Attachments(ctx, req.FormID, result.InstanceID)
	if err != nil {
		return err
	}

	known := make(map[string]bool, len(attachments))
	for _, a := range attachments {
		known[a.Name] = true
		result.Expected = append(result.Expected, a.Name)
	}

	stored := make(map[string]bool)
	for _, f := range req.Files {
		if !known[f.Name] {
			result.Unexpected = append(result.Unexpected, f.Name)
			continue
		}
		if err := i.store.PutAttachment(ctx, req.FormID, result.InstanceID, f.Name, i.newBlobID(), f.Content); err != nil {
			return err
		}
		if !stored[f.Name] {
			stored[f.Name] = true
			result.Stored = append(result.Stored, f.Name)
		}
	}

	for _, a := range attachments {
		if !a.Received && !stored[a.Name] {
			result.Missing = append(result.Missing, a.Name)
		}
	}
	return nil
}
