package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"

	"github.com/BrunoChampionGalvez/lecsum-ai-backend/internal/contextutil"
)

// QdrantIndex implements Index using Qdrant. Each namespace maps to its own
// collection, so one user's vectors are structurally unreachable from a
// search in another user's namespace.
type QdrantIndex struct {
	client     *qdrant.Client
	prefix     string
	vectorSize int
}

// NewQdrantIndex creates a Qdrant-backed index. urlStr should be in the
// format "http://host:port"; the gRPC port is derived from the HTTP port.
func NewQdrantIndex(urlStr, prefix string, vectorSize int) (*QdrantIndex, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	// gRPC port is typically HTTP port + 1.
	port := 6334
	if parsedURL.Port() != "" {
		if httpPort, err := strconv.Atoi(parsedURL.Port()); err == nil {
			port = httpPort + 1
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		prefix:     prefix,
		vectorSize: vectorSize,
	}, nil
}

// collectionName maps a namespace to its backing collection. Characters
// outside [a-zA-Z0-9_-] are replaced so arbitrary user ids stay valid
// collection names.
func collectionName(prefix, namespace string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, namespace)
	return prefix + "_" + sanitized
}

func (s *QdrantIndex) EnsureNamespace(ctx context.Context, namespace string) error {
	logger := contextutil.LoggerFromContext(ctx)
	collection := collectionName(s.prefix, namespace)

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", s.vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(s.vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return nil
	}

	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}
	config := info.Config
	if config == nil || config.Params == nil {
		return fmt.Errorf("collection config is invalid")
	}
	vectorsConfig := config.Params.GetVectorsConfig()
	if vectorsConfig == nil {
		return fmt.Errorf("collection vectors config is invalid")
	}
	params := vectorsConfig.GetParams()
	if params == nil {
		return fmt.Errorf("collection vector params are invalid")
	}
	if int(params.Size) != s.vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", s.vectorSize, params.Size)
	}
	return nil
}

func (s *QdrantIndex) Upsert(ctx context.Context, namespace string, records []Record) error {
	logger := contextutil.LoggerFromContext(ctx)
	if len(records) == 0 {
		return nil
	}
	collection := collectionName(s.prefix, namespace)

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, record := range records {
		point := &qdrant.PointStruct{
			Id:      qdrant.NewID(record.ID),
			Vectors: qdrant.NewVectors(record.Vector...),
		}
		if len(record.Fields) > 0 {
			point.Payload = qdrant.NewValueMap(record.Fields)
		}
		points = append(points, point)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         points,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert records", "collection", collection, "count", len(records), "error", err)
		return fmt.Errorf("failed to upsert records: %w", err)
	}

	logger.InfoContext(ctx, "upserted records", "collection", collection, "count", len(records))
	return nil
}

func (s *QdrantIndex) Search(ctx context.Context, namespace string, vector []float32, topK int) ([]Hit, error) {
	logger := contextutil.LoggerFromContext(ctx)
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be greater than 0")
	}
	collection := collectionName(s.prefix, namespace)

	limit := uint64(topK)
	scoredPoints, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to search records", "collection", collection, "topK", topK, "error", err)
		return nil, fmt.Errorf("failed to search records: %w", err)
	}

	hits := make([]Hit, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		id := ""
		if point.Id != nil {
			id = point.Id.GetUuid()
		}
		fields := map[string]any{}
		if point.Payload != nil {
			fields = convertPayloadToMap(point.Payload)
		}
		hits = append(hits, Hit{
			ID:     id,
			Score:  point.Score,
			Fields: fields,
		})
	}

	logger.InfoContext(ctx, "search completed", "collection", collection, "topK", topK, "hits", len(hits))
	return hits, nil
}

func (s *QdrantIndex) Count(ctx context.Context, namespace string) (int, error) {
	collection := collectionName(s.prefix, namespace)
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection info: %w", err)
	}
	if info.PointsCount == nil {
		return 0, fmt.Errorf("collection points count unavailable")
	}
	return int(*info.PointsCount), nil
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
