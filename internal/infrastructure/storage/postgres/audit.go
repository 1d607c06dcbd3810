// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "challanbook/internal/core/context"
	"challanbook/internal/core/id"
	"challanbook/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used for the changes payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// DefaultCompressThreshold is the payload size above which changes are stored compressed.
// A challan with 40 edited lines produces a diff of roughly this size.
const DefaultCompressThreshold = 4 * 1024

// AuditService stores the change journal in sys_audit.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

var _ audit.Logger = (*AuditService)(nil)

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: DefaultCompressThreshold,
	}, nil
}

// Close releases the zstd decoder goroutines.
func (s *AuditService) Close() {
	s.decoder.Close()
}

// LogChange implements audit.Logger. The row joins the transaction in ctx.
func (s *AuditService) LogChange(
	ctx context.Context,
	entityType string,
	entityID id.ID,
	action audit.Action,
	changes map[string]any,
) error {
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}

	plain, compressed, algo := s.pack(changesJSON)

	const sql = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, terminal,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		id.New(), entityType, entityID, string(action), appctx.GetTerminal(ctx),
		plain, compressed, string(algo), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// History implements audit.Logger. Newest first.
func (s *AuditService) History(
	ctx context.Context,
	entityType string,
	entityID id.ID,
	limit int,
) ([]audit.Entry, error) {
	const sql = `
		SELECT id, entity_type, entity_id, action, terminal,
			   changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, sql, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]audit.Entry, 0)
	for rows.Next() {
		var (
			e          audit.Entry
			action     string
			changes    []byte
			compressed []byte
			algo       string
		)
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &action, &e.Terminal,
			&changes, &compressed, &algo, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Action = audit.Action(action)

		e.Changes, err = s.unpack(changes, compressed, CompressionAlgo(algo))
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// pack returns either the plain JSON or its zstd frame, never both.
func (s *AuditService) pack(changes []byte) (plain, compressed []byte, algo CompressionAlgo) {
	if len(changes) > s.compressThreshold {
		return nil, s.encoder.EncodeAll(changes, nil), CompressionZstd
	}
	return changes, nil, CompressionNone
}

func (s *AuditService) unpack(plain, compressed []byte, algo CompressionAlgo) (json.RawMessage, error) {
	if algo == CompressionZstd && len(compressed) > 0 {
		out, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress changes: %w", err)
		}
		return out, nil
	}
	return plain, nil
}
