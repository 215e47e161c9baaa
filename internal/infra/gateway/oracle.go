package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/veilshelf/veilshelf"
)

var tracer = otel.Tracer("gateway")

// HttpOracle talks to a remote disclosure oracle over HTTP. Transport
// failures and server-side errors surface as ErrOracleUnavailable so callers
// can retry without inspecting the transport.
type HttpOracle struct {
	endpoint string
	client   *http.Client
}

func NewHttpOracle(endpoint string) *HttpOracle {
	return &HttpOracle{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type disclosureRequest struct {
	ContextID string                       `json:"contextId"`
	Handles   []veilshelf.CiphertextHandle `json:"handles"`
}

type disclosureResponse struct {
	Values      map[string]uint32     `json:"values"`
	Attestation veilshelf.Attestation `json:"attestation"`
}

func (g *HttpOracle) RequestDisclosure(ctx context.Context, handles []veilshelf.CiphertextHandle, contextID string) (map[string]uint32, veilshelf.Attestation, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Oracle.RequestDisclosure")
	defer span.End()

	body, err := json.Marshal(disclosureRequest{
		ContextID: contextID,
		Handles:   handles,
	})
	if err != nil {
		span.RecordError(err)
		return nil, veilshelf.Attestation{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint+"/disclose", bytes.NewReader(body))
	if err != nil {
		span.RecordError(err)
		return nil, veilshelf.Attestation{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, veilshelf.Attestation{}, fmt.Errorf("%w: %v", veilshelf.ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, veilshelf.Attestation{}, fmt.Errorf("%w: oracle returned status %d", veilshelf.ErrOracleUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, veilshelf.Attestation{}, fmt.Errorf("oracle rejected request with status %d: %s", resp.StatusCode, string(data))
	}

	var result disclosureResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		span.RecordError(err)
		return nil, veilshelf.Attestation{}, fmt.Errorf("%w: %v", veilshelf.ErrOracleUnavailable, err)
	}

	return result.Values, result.Attestation, nil
}

var _ veilshelf.Oracle = (*HttpOracle)(nil)
