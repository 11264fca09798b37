package pack

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog"

	"issue-lite/internal/index"
	"issue-lite/internal/objectstore"
	"issue-lite/internal/repository"
	"issue-lite/internal/transport"
)

var ErrNotExchange = errors.New("remote is not an exchange")

// Report describes one reconciliation pass.
type Report struct {
	Remote string
	Delta  Delta
	// Probe is set when nothing was transferred.
	Probe       bool
	Transferred int
	Failed      int
	Reindexed   []string
}

// Options controls Pull and Push.
type Options struct {
	// Probe computes and reports the delta without transferring.
	Probe bool
}

// Reconciler brings replicas up to date with each other.
type Reconciler struct {
	store   *objectstore.Store
	indexer *index.Indexer
	local   transport.Endpoint
	logger  zerolog.Logger
}

// NewReconciler returns a reconciler for the local store.
func NewReconciler(store *objectstore.Store, indexer *index.Indexer) *Reconciler {
	return &Reconciler{
		store:   store,
		indexer: indexer,
		local:   transport.NewFileSystem(store.Repo().Root()),
		logger:  store.Logger(),
	}
}

// Pack rebuilds the local pack.json and returns it.
func (r *Reconciler) Pack(ctx context.Context) (Manifest, error) {
	m, err := Build(ctx, r.store)
	if err != nil {
		return m, err
	}
	return m, Save(r.store.Repo().PackPath(), m)
}

// Pull copies the objects remote has and the local replica lacks, then
// re-indexes every issue that received objects.
func (r *Reconciler) Pull(ctx context.Context, remote transport.Endpoint, opts Options) (Report, error) {
	report := Report{Remote: remote.String(), Probe: opts.Probe}

	remoteManifest, err := fetchManifest(ctx, remote)
	if err != nil {
		return report, err
	}
	if err := Save(r.store.Repo().RemotePackPath(), remoteManifest); err != nil {
		return report, err
	}
	localManifest, err := Build(ctx, r.store)
	if err != nil {
		return report, err
	}
	report.Delta = Missing(localManifest, remoteManifest)
	if opts.Probe {
		return report, nil
	}

	transferred, failed := r.Transfer(ctx, remote, r.local, report.Delta)
	report.Failed = failed
	report.Transferred = countObjects(transferred)

	for _, id := range report.Delta.Touched() {
		if _, err := r.indexer.Index(ctx, id); err != nil {
			r.logger.Warn().Str("issue", id).Err(err).Msg("re-indexing pulled issue failed")
			continue
		}
		report.Reindexed = append(report.Reindexed, id)
	}
	if _, err := r.Pack(ctx); err != nil {
		return report, err
	}
	return report, nil
}

// Push copies the objects remote lacks. Only exchange replicas accept
// pushes. The remote manifest is published last and lists only objects
// that were actually transferred.
func (r *Reconciler) Push(ctx context.Context, remote transport.Endpoint, opts Options) (Report, error) {
	report := Report{Remote: remote.String(), Probe: opts.Probe}

	role, err := RemoteRole(ctx, remote)
	if err != nil {
		return report, err
	}
	if role != repository.RoleExchange {
		return report, fmt.Errorf("%s has role %q: %w", remote, role, ErrNotExchange)
	}

	remoteManifest, err := fetchManifest(ctx, remote)
	if err != nil {
		return report, err
	}
	localManifest, err := Build(ctx, r.store)
	if err != nil {
		return report, err
	}
	report.Delta = Missing(remoteManifest, localManifest)
	if opts.Probe {
		return report, nil
	}

	transferred, failed := r.Transfer(ctx, r.local, remote, report.Delta)
	report.Failed = failed
	report.Transferred = countObjects(transferred)

	published := Union(remoteManifest, transferred)
	data, err := published.Encode()
	if err != nil {
		return report, err
	}
	if err := remote.WriteFile(ctx, ManifestFile, data); err != nil {
		return report, fmt.Errorf("publishing manifest to %s: %w", remote, err)
	}
	return report, nil
}

// Transfer copies the objects of delta from src to dst. Each missing
// issue's directory skeleton is created before any file is copied. A
// failed object is logged and skipped. The returned manifest lists the
// objects now present on dst.
func (r *Reconciler) Transfer(ctx context.Context, src, dst transport.Endpoint, delta Delta) (Manifest, int) {
	done := NewManifest()
	failed := 0

	for _, id := range delta.Issues {
		ok := true
		for _, sub := range []string{"diff", "comments"} {
			if err := dst.MkdirAll(ctx, path.Join(IssueDir(id), sub)); err != nil {
				r.logger.Warn().Str("issue", id).Str("remote", dst.String()).Err(err).Msg("creating issue skeleton failed")
				ok = false
			}
		}
		if ok {
			done.Issues = append(done.Issues, id)
		} else {
			failed++
		}
	}

	copyAll := func(kind string, objects map[string][]string, rel func(id, obj string) string, into map[string][]string) {
		for id, ids := range objects {
			for _, obj := range ids {
				if err := transport.Copy(ctx, src, dst, rel(id, obj)); err != nil {
					r.logger.Warn().Str("issue", id).Str("object", obj).Str("kind", kind).Err(err).Msg("transfer failed, skipping")
					failed++
					continue
				}
				into[id] = append(into[id], obj)
			}
		}
	}
	copyAll("diff", delta.Diffs, DiffPath, done.Diffs)
	copyAll("comment", delta.Comments, CommentPath, done.Comments)

	// An issue gaining objects on dst is present there even if it was
	// not in the delta's issue list.
	for id := range done.Diffs {
		done.Issues = append(done.Issues, id)
	}
	for id := range done.Comments {
		done.Issues = append(done.Issues, id)
	}
	done.Issues = union(nil, done.Issues)
	return done, failed
}

// RemoteRole reads the role published by remote. A remote without a
// status file is treated as an endpoint.
func RemoteRole(ctx context.Context, remote transport.Endpoint) (string, error) {
	data, err := remote.ReadFile(ctx, StatusFile)
	if err != nil {
		if errors.Is(err, transport.ErrNotExist) {
			return repository.RoleEndpoint, nil
		}
		return "", fmt.Errorf("reading role of %s: %w", remote, err)
	}
	return strings.TrimSpace(string(data)), nil
}

func fetchManifest(ctx context.Context, remote transport.Endpoint) (Manifest, error) {
	data, err := remote.ReadFile(ctx, ManifestFile)
	if err != nil {
		if errors.Is(err, transport.ErrNotExist) {
			return NewManifest(), nil
		}
		return Manifest{}, fmt.Errorf("fetching manifest from %s: %w", remote, err)
	}
	return Parse(data)
}

func countObjects(m Manifest) int {
	_, diffs, comments := m.Count()
	return diffs + comments
}
