package miner

import (
	"context"
	"fmt"

	githubapi "github.com/csmol/thrivescraper/internal/github_api"
	thrivedb "github.com/csmol/thrivescraper/internal/thrive_db"
	"github.com/csmol/thrivescraper/pkg/log"
)

// Reconciler upserts one repository record at a time into the store.
// It follows a check-then-act convention: existence is checked before
// every insert, so constraint violations indicate a logic bug or a
// concurrent writer and propagate to the caller. Designed for a single
// writer; there is no retry.
type Reconciler struct {
	Logger log.Logger
	Db     *thrivedb.ThriveDB
}

func NewReconciler(logger log.Logger, db *thrivedb.ThriveDB) *Reconciler {
	return &Reconciler{
		Logger: logger,
		Db:     db,
	}
}

// ReconcileRepo inserts the repository if its full name is not yet
// known, then tops up its topic associations. Returns whether the
// repository was newly added.
func (r *Reconciler) ReconcileRepo(ctx context.Context, rec githubapi.RepoResponse) (bool, error) {
	exists, err := r.Db.RepoExists(rec.FullName)
	if err != nil {
		return false, err
	}

	if !exists {
		if err := r.insertRepo(ctx, rec); err != nil {
			return false, fmt.Errorf("inserting repo %q: %w", rec.FullName, err)
		}
	}

	if err := r.associateTopics(ctx, rec); err != nil {
		return false, fmt.Errorf("associating topics of repo %q: %w", rec.FullName, err)
	}

	return !exists, nil
}

func (r *Reconciler) insertRepo(ctx context.Context, rec githubapi.RepoResponse) error {
	organization := rec.OrganizationName()

	orgExists, err := r.Db.OrganizationExists(organization)
	if err != nil {
		return err
	}
	if !orgExists {
		if _, err := r.Db.Get("organizations").Append(map[string]interface{}{
			"name": organization,
		}); err != nil {
			return err
		}
		r.Logger.Debug(ctx, "Added organization %q", organization)
	}

	orgID, err := r.Db.OrganizationID(organization)
	if err != nil {
		return err
	}

	// Mined repos start out uncategorized.
	categoryID, err := r.Db.CategoryID("none")
	if err != nil {
		return err
	}

	createdAt, err := IsoToTimestamp(rec.CreatedAt)
	if err != nil {
		return err
	}
	pushedAt, err := IsoToTimestamp(rec.PushedAt)
	if err != nil {
		return err
	}
	updatedAt, err := IsoToTimestamp(rec.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = r.Db.Get("repos").Append(map[string]interface{}{
		"active":         1,
		"full_name":      rec.FullName,
		"organization":   orgID,
		"name":           rec.Name,
		"archived":       boolToInt(rec.Archived),
		"category":       categoryID,
		"created_at":     createdAt,
		"default_branch": rec.DefaultBranch,
		"description":    rec.Description,
		"homepage":       rec.Homepage,
		"language":       rec.Language,
		"license":        rec.LicenseName(),
		"node_id":        rec.NodeID,
		"pushed_at":      pushedAt,
		"updated_at":     updatedAt,
	})
	return err
}

// associateTopics creates any topics the record names that are missing
// from the store and appends join rows for associations the repo does
// not have yet.
func (r *Reconciler) associateTopics(ctx context.Context, rec githubapi.RepoResponse) error {
	repoID, err := r.Db.RepoID(rec.FullName)
	if err != nil {
		return err
	}

	current, err := r.Db.RepoTopicsByID(repoID)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(current))
	for _, topic := range current {
		have[topic] = true
	}

	for _, topic := range rec.Topics {
		if have[topic] {
			continue
		}

		topicExists, err := r.Db.TopicExists(topic)
		if err != nil {
			return err
		}
		if !topicExists {
			if _, err := r.Db.Get("topics").Append(map[string]interface{}{
				"name": topic,
			}); err != nil {
				return err
			}
		}

		topicID, err := r.Db.TopicID(topic)
		if err != nil {
			return err
		}

		if _, err := r.Db.Get("repos_topics").Append(map[string]interface{}{
			"repo":  repoID,
			"topic": topicID,
		}); err != nil {
			return err
		}
	}

	return nil
}
