package respond

import (
	"context"

	"github.com/veldt-labs/caresage/internal/core"
	"github.com/veldt-labs/caresage/internal/providers/gateway"
)

// KnowledgeGateway is the slice of the reference-data facade the
// responders consume.
type KnowledgeGateway interface {
	Query(ctx context.Context, kind gateway.ProviderKind, params map[string]string) gateway.Result
}

// Registry maps routing intents to their responders. Unknown intents
// resolve to the general responder.
type Registry struct {
	responders map[core.Intent]core.Responder
	general    core.Responder
}

func NewRegistry(gen core.Generator, gw KnowledgeGateway, facts core.FactsRepository) *Registry {
	general := NewGeneral(gen)
	return &Registry{
		general: general,
		responders: map[core.Intent]core.Responder{
			core.IntentSymptom:    NewSymptom(gen),
			core.IntentMedication: NewMedication(gen, gw),
			core.IntentReport:     NewReport(gen, gw),
			core.IntentDiagnosis:  NewDiagnosis(gen, gw, facts),
			core.IntentTracking:   NewTracking(facts),
			core.IntentGeneral:    general,
		},
	}
}

func (r *Registry) For(intent core.Intent) core.Responder {
	if resp, ok := r.responders[intent]; ok {
		return resp
	}
	return r.general
}

// General exposes the fallback responder for degraded dispatch.
func (r *Registry) General() core.Responder {
	return r.general
}
