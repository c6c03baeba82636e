package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/BuongiornoTexas/pwdusage/pkg/log"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// firestoreStore loads the configuration document from Google Cloud Firestore.
// Hosted deployments keep the usage document in a collection so it can be
// edited without rebuilding the container. Each document carries the raw
// config in a "document" string field and optionally a "name" field whose
// extension selects the parse format.
type firestoreStore struct {
	projectID  string
	database   string
	collection string
	document   string

	mu     sync.Mutex
	client *firestore.Client
}

// configuredFirestore sets up flags for the Firestore config store.
func configuredFirestore() *firestoreStore {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore database")
	collection := lflag.String("firestore-collection", "pwdusage", "Firestore collection holding usage config documents")
	document := lflag.String("firestore-document", "usage", "Firestore document name of the usage config")

	f := &firestoreStore{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.collection = *collection
		f.document = *document
	})

	return f
}

func (f *firestoreStore) validate() error {
	if f.collection == "" {
		return fmt.Errorf("firestore-collection is required")
	}
	if f.document == "" {
		return fmt.Errorf("firestore-document is required")
	}
	// Project ID may be empty; the client detects it from the environment.
	return nil
}

// getClient lazily initialises the Firestore client.
func (f *firestoreStore) getClient(ctx context.Context) (*firestore.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}

	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return client, nil
}

// Load implements Store.
func (f *firestoreStore) Load(ctx context.Context) ([]byte, string, error) {
	client, err := f.getClient(ctx)
	if err != nil {
		return nil, "", err
	}

	doc, err := client.Collection(f.collection).Doc(f.document).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			names, listErr := f.listDocuments(ctx, client)
			if listErr != nil {
				log.Ctx(ctx).WarnContext(ctx, "failed to list config documents", slog.Any("error", listErr))
				return nil, "", fmt.Errorf("config document %q not found in collection %q", f.document, f.collection)
			}
			return nil, "", fmt.Errorf("config document %q not found in collection %q (available: %s)",
				f.document, f.collection, strings.Join(names, ", "))
		}
		return nil, "", fmt.Errorf("failed to fetch config document: %w", err)
	}

	val, err := doc.DataAt("document")
	if err != nil {
		return nil, "", fmt.Errorf("config document %q missing 'document' field: %w", f.document, err)
	}
	raw, ok := val.(string)
	if !ok {
		return nil, "", fmt.Errorf("config document %q 'document' field is not a string", f.document)
	}

	name := f.document + ".json"
	if v, err := doc.DataAt("name"); err == nil {
		if s, ok := v.(string); ok && s != "" {
			name = s
		}
	}

	return []byte(raw), name, nil
}

// listDocuments returns the names of documents in the config collection for
// diagnostics.
func (f *firestoreStore) listDocuments(ctx context.Context, client *firestore.Client) ([]string, error) {
	var names []string
	iter := client.Collection(f.collection).DocumentRefs(ctx)
	for {
		ref, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		names = append(names, ref.ID)
	}
	return names, nil
}

// Close implements Store.
func (f *firestoreStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
