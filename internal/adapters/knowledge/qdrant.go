package knowledge

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/0xcro3dile/kbchat/internal/domain/entities"
)

const qdrantPageSize = 256

// QdrantSource reads every point of a Qdrant collection. Each point needs a
// dense vector and string payload fields "source" and "text".
type QdrantSource struct {
	conn       *grpc.ClientConn
	points     pb.PointsClient
	collection string
}

// DialQdrant connects to Qdrant's gRPC port (6334 by default).
func DialQdrant(addr, collection string) (*QdrantSource, error) {
	if addr == "" {
		addr = "localhost:6334"
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect: %w", err)
	}
	src := NewQdrantSource(pb.NewPointsClient(conn), collection)
	src.conn = conn
	return src, nil
}

// NewQdrantSource wraps an existing points client.
func NewQdrantSource(points pb.PointsClient, collection string) *QdrantSource {
	if collection == "" {
		collection = "kbchat"
	}
	return &QdrantSource{points: points, collection: collection}
}

// Load scrolls the whole collection page by page.
func (s *QdrantSource) Load(ctx context.Context) ([]entities.Chunk, error) {
	limit := uint32(qdrantPageSize)
	req := &pb.ScrollPoints{
		CollectionName: s.collection,
		Limit:          &limit,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		WithVectors:    &pb.WithVectorsSelector{SelectorOptions: &pb.WithVectorsSelector_Enable{Enable: true}},
	}

	chunks := []entities.Chunk{}
	for {
		resp, err := s.points.Scroll(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("qdrant scroll %s: %w", s.collection, err)
		}

		for _, pt := range resp.GetResult() {
			data := pt.GetVectors().GetVector().GetData()
			if len(data) == 0 {
				return nil, fmt.Errorf("qdrant point %s has no dense vector", pt.GetId().String())
			}
			embedding := make([]float64, len(data))
			for i, v := range data {
				embedding[i] = float64(v)
			}

			payload := pt.GetPayload()
			chunks = append(chunks, entities.Chunk{
				Source:    payload["source"].GetStringValue(),
				Text:      payload["text"].GetStringValue(),
				Embedding: embedding,
			})
		}

		next := resp.GetNextPageOffset()
		if next == nil {
			return chunks, nil
		}
		req.Offset = next
	}
}

// Close releases the gRPC connection when the source owns it.
func (s *QdrantSource) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
