package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	apperrors "tracegraph/backend/pkg/errors"
	"tracegraph/backend/pkg/logger"
)

// Payload is the stored envelope of one index entry. It is sufficient to
// resolve the entry back to its graph node.
type Payload struct {
	Type       string `json:"type"`
	BusinessID string `json:"business_id"`
	Text       string `json:"text"`
}

// Entry is one vector index entry keyed by the composite entity key.
type Entry struct {
	Key     string
	Vector  []float32
	Payload Payload
}

// Hit is one similarity search result.
type Hit struct {
	Key     string
	Score   float32
	Payload Payload
}

// Key builds the composite entity key for a typed business id.
func Key(entityType, businessID string) string {
	return fmt.Sprintf("%s:%s", entityType, businessID)
}

// PointID derives the deterministic point identifier for a composite key.
// Qdrant only accepts numeric or UUID point ids, so the key is hashed into a
// name-based UUID; the key itself travels in the payload.
func PointID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// Index owns the mapping between composite entity keys and stored vectors in
// a single Qdrant collection.
type Index struct {
	client     *qdrant.Client
	collection string
	mu         sync.RWMutex
	dim        int // 0 until the collection is known
	logger     *zap.Logger
}

// NewIndex connects to Qdrant and returns an index bound to one collection.
func NewIndex(host string, port int, collection string) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, apperrors.NewVectorBackendFailed("connect", collection, err)
	}

	return &Index{
		client:     client,
		collection: collection,
		logger:     logger.Get(),
	}, nil
}

// Close releases the backend connection.
func (i *Index) Close() error {
	return i.client.Close()
}

// EnsureCollection creates the collection with the given dimensionality and
// cosine distance if it does not exist. Idempotent; when the collection
// already exists its actual dimension is recorded so that a later upsert with
// mismatched vectors fails explicitly instead of silently.
func (i *Index) EnsureCollection(ctx context.Context, dim int) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return apperrors.NewVectorBackendFailed("collection check", i.collection, err)
	}

	if !exists {
		err := i.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: i.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return apperrors.NewVectorBackendFailed("create collection", i.collection, err)
		}
		i.setDim(dim)
		i.logger.Info("Created vector collection",
			zap.String("collection", i.collection),
			zap.Int("dimension", dim),
		)
		return nil
	}

	info, err := i.client.GetCollectionInfo(ctx, i.collection)
	if err != nil {
		return apperrors.NewVectorBackendFailed("collection info", i.collection, err)
	}
	existing := int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
	i.setDim(existing)

	if existing != dim {
		i.logger.Warn("Vector collection exists with different dimension",
			zap.String("collection", i.collection),
			zap.Int("existing", existing),
			zap.Int("requested", dim),
		)
	}
	return nil
}

// Upsert replaces any existing entries sharing the same key. EnsureCollection
// must have run first so the collection dimension is known; entries whose
// vector length does not match it are rejected.
func (i *Index) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	dim := i.getDim()
	if dim == 0 {
		return apperrors.NewVectorBackendFailed("upsert", i.collection,
			fmt.Errorf("collection dimension unknown, EnsureCollection has not run"))
	}

	points := make([]*qdrant.PointStruct, 0, len(entries))
	for _, e := range entries {
		if len(e.Vector) != dim {
			return apperrors.NewDimensionMismatch(e.Key, dim, len(e.Vector))
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(PointID(e.Key)),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				"type":        e.Payload.Type,
				"business_id": e.Payload.BusinessID,
				"text":        e.Payload.Text,
			}),
		})
	}

	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return apperrors.NewVectorBackendFailed("upsert", i.collection, err)
	}

	i.logger.Info("Upserted vector entries",
		zap.String("collection", i.collection),
		zap.Int("count", len(points)),
	)
	return nil
}

// Search returns at most k hits ordered by descending similarity score.
func (i *Index) Search(ctx context.Context, queryVector []float32, k int) ([]Hit, error) {
	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, apperrors.NewVectorBackendFailed("search", i.collection, err)
	}

	hits := make([]Hit, 0, len(points))
	for _, p := range points {
		payload := Payload{
			Type:       p.Payload["type"].GetStringValue(),
			BusinessID: p.Payload["business_id"].GetStringValue(),
			Text:       p.Payload["text"].GetStringValue(),
		}
		hits = append(hits, Hit{
			Key:     Key(payload.Type, payload.BusinessID),
			Score:   p.Score,
			Payload: payload,
		})
	}
	return hits, nil
}

func (i *Index) setDim(dim int) {
	i.mu.Lock()
	i.dim = dim
	i.mu.Unlock()
}

func (i *Index) getDim() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dim
}
