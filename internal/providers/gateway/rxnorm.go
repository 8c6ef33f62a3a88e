package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// fetchDrugConcepts resolves a free-text drug name against RxNorm,
// returning standardized concepts (rxcui + canonical name).
func (g *Gateway) fetchDrugConcepts(ctx context.Context, drug string) (Result, error) {
	if drug == "" {
		return Result{}, fmt.Errorf("empty drug name")
	}

	q := url.Values{}
	q.Set("name", drug)

	var payload struct {
		DrugGroup struct {
			ConceptGroup []struct {
				ConceptProperties []struct {
					RxCUI string `json:"rxcui"`
					Name  string `json:"name"`
					TTY   string `json:"tty"`
				} `json:"conceptProperties"`
			} `json:"conceptGroup"`
		} `json:"drugGroup"`
	}

	if err := g.getJSON(ctx, g.cfg.RxNormBaseURL, "/REST/drugs.json", q, &payload); err != nil {
		return Result{}, err
	}

	res := Result{Provider: KindDrugName, Available: true}
	for _, group := range payload.DrugGroup.ConceptGroup {
		for _, c := range group.ConceptProperties {
			res.Concepts = append(res.Concepts, DrugConcept{
				RxCUI:    c.RxCUI,
				Name:     c.Name,
				TermType: c.TTY,
			})
			if len(res.Concepts) == 5 {
				return res, nil
			}
		}
	}
	return res, nil
}

// fetchInteractions checks pairwise interactions for a "+"-joined list
// of rxcui identifiers.
func (g *Gateway) fetchInteractions(ctx context.Context, rxcuis string) (Result, error) {
	if rxcuis == "" {
		return Result{}, fmt.Errorf("empty rxcui list")
	}

	q := url.Values{}
	q.Set("rxcuis", rxcuis)

	var payload struct {
		FullInteractionTypeGroup []struct {
			FullInteractionType []struct {
				InteractionPair []struct {
					Severity           string `json:"severity"`
					Description        string `json:"description"`
					InteractionConcept []struct {
						MinConceptItem struct {
							Name string `json:"name"`
						} `json:"minConceptItem"`
					} `json:"interactionConcept"`
				} `json:"interactionPair"`
			} `json:"fullInteractionType"`
		} `json:"fullInteractionTypeGroup"`
	}

	if err := g.getJSON(ctx, g.cfg.RxNormBaseURL, "/REST/interaction/list.json", q, &payload); err != nil {
		return Result{}, err
	}

	res := Result{Provider: KindInteractions, Available: true}
	for _, group := range payload.FullInteractionTypeGroup {
		for _, it := range group.FullInteractionType {
			for _, pair := range it.InteractionPair {
				inter := Interaction{
					Severity:    pair.Severity,
					Description: pair.Description,
				}
				if len(pair.InteractionConcept) > 0 {
					inter.Drug1 = pair.InteractionConcept[0].MinConceptItem.Name
				}
				if len(pair.InteractionConcept) > 1 {
					inter.Drug2 = pair.InteractionConcept[1].MinConceptItem.Name
				}
				res.Interactions = append(res.Interactions, inter)
			}
		}
	}
	return res, nil
}

// JoinRxCUIs builds the parameter format the interaction endpoint expects.
func JoinRxCUIs(ids []string) string {
	return strings.Join(ids, "+")
}
