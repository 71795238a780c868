package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edforge/edforge/internal/model"
)

// PostgresRequestStore is a PostgreSQL-backed RequestStore. The tagged
// input/output unions and response metadata are stored as jsonb.
type PostgresRequestStore struct {
	pool *pgxpool.Pool
}

// NewPostgresRequestStore creates a PostgreSQL-backed request store.
func NewPostgresRequestStore(pool *pgxpool.Pool) (*PostgresRequestStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresRequestStore{pool: pool}, nil
}

func (s *PostgresRequestStore) CreateRequest(ctx context.Context, r AIRequest) (AIRequest, error) {
	input, err := json.Marshal(r.Input)
	if err != nil {
		return AIRequest{}, fmt.Errorf("marshal input: %w", err)
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO ai_requests (user_id, agent_type, input_data, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id::text, created_at`,
		r.UserID, r.AgentType, input, r.Status,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return AIRequest{}, fmt.Errorf("create ai request: %w", err)
	}
	return r, nil
}

func (s *PostgresRequestStore) GetRequest(ctx context.Context, id string) (AIRequest, error) {
	var r AIRequest
	var input []byte
	var reasoning *string
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, user_id, agent_type, input_data, status, reasoning, created_at, completed_at
		 FROM ai_requests WHERE id = $1::uuid`,
		id,
	).Scan(&r.ID, &r.UserID, &r.AgentType, &input, &r.Status, &reasoning, &r.CreatedAt, &r.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return AIRequest{}, fmt.Errorf("ai request %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return AIRequest{}, fmt.Errorf("get ai request: %w", err)
	}
	if reasoning != nil {
		r.Reasoning = *reasoning
	}
	if err := json.Unmarshal(input, &r.Input); err != nil {
		return AIRequest{}, fmt.Errorf("unmarshal input: %w", err)
	}
	return r, nil
}

func (s *PostgresRequestStore) UpdateRequest(ctx context.Context, r AIRequest) error {
	cmd, err := s.pool.Exec(ctx,
		`UPDATE ai_requests
		 SET status = $2, reasoning = $3, completed_at = $4
		 WHERE id = $1::uuid`,
		r.ID, r.Status, nullIfEmpty(r.Reasoning), r.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update ai request: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("ai request %s: %w", r.ID, model.ErrNotFound)
	}
	return nil
}

func (s *PostgresRequestStore) CreateResponse(ctx context.Context, resp AIResponse) (AIResponse, error) {
	output, err := json.Marshal(resp.Output)
	if err != nil {
		return AIResponse{}, fmt.Errorf("marshal output: %w", err)
	}
	var metadata []byte
	if resp.Metadata != nil {
		if metadata, err = json.Marshal(resp.Metadata); err != nil {
			return AIResponse{}, fmt.Errorf("marshal metadata: %w", err)
		}
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO ai_responses (request_id, output_data, explanation, confidence_score, metadata)
		 VALUES ($1::uuid, $2, $3, $4, $5)
		 RETURNING id::text, created_at`,
		resp.RequestID, output, resp.Explanation, resp.ConfidenceScore, metadata,
	).Scan(&resp.ID, &resp.CreatedAt)
	if err != nil {
		return AIResponse{}, fmt.Errorf("create ai response: %w", err)
	}
	return resp, nil
}

func (s *PostgresRequestStore) ListResponsesByRequest(ctx context.Context, requestID string) ([]AIResponse, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, request_id::text, output_data, explanation, confidence_score, metadata, created_at
		 FROM ai_responses WHERE request_id = $1::uuid
		 ORDER BY created_at ASC`,
		requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ai responses: %w", err)
	}
	defer rows.Close()

	var out []AIResponse
	for rows.Next() {
		var resp AIResponse
		var output, metadata []byte
		if err := rows.Scan(&resp.ID, &resp.RequestID, &output, &resp.Explanation, &resp.ConfidenceScore, &metadata, &resp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ai response: %w", err)
		}
		if err := json.Unmarshal(output, &resp.Output); err != nil {
			return nil, fmt.Errorf("unmarshal output: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &resp.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
