package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const datastoreScope = "https://www.googleapis.com/auth/datastore"

// FirestoreStore stores documents in Cloud Firestore. Document create and
// update times come from the server.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects to projectID. When credentialsJSON is empty the
// client falls back to Application Default Credentials.
func NewFirestoreStore(ctx context.Context, projectID, credentialsJSON string) (*FirestoreStore, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}

	var opts []option.ClientOption
	if credentialsJSON != "" {
		creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), datastoreScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse google credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return fromSnapshot(snap)
}

func (s *FirestoreStore) List(ctx context.Context, collection string, filters ...Filter) ([]*Document, error) {
	query := s.client.Collection(collection).Query
	for _, f := range filters {
		if err := f.validate(); err != nil {
			return nil, err
		}
		query = query.Where(f.Field, string(f.Op), f.Value)
	}

	snaps, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}

	docs := make([]*Document, 0, len(snaps))
	for _, snap := range snaps {
		doc, err := fromSnapshot(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *FirestoreStore) Create(ctx context.Context, collection string, data map[string]any) (*Document, error) {
	ref := s.client.Collection(collection).NewDoc()
	if _, err := ref.Create(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to create %s document: %w", collection, err)
	}
	return s.Get(ctx, collection, ref.ID)
}

func (s *FirestoreStore) Insert(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	if _, err := s.client.Collection(collection).Doc(id).Create(ctx, data); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create %s/%s: %w", collection, id, err)
	}
	return s.Get(ctx, collection, id)
}

func (s *FirestoreStore) Set(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return nil, fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return s.Get(ctx, collection, id)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func fromSnapshot(snap *firestore.DocumentSnapshot) (*Document, error) {
	data, err := normalizeMap(snap.Data())
	if err != nil {
		return nil, err
	}
	return &Document{
		ID:        snap.Ref.ID,
		Data:      data,
		CreatedAt: snap.CreateTime,
		UpdatedAt: snap.UpdateTime,
	}, nil
}
