package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// fetchDrugFacts queries the openFDA drug label endpoint and flattens
// the first matching label into a DrugFacts view.
func (g *Gateway) fetchDrugFacts(ctx context.Context, drug string) (Result, error) {
	if drug == "" {
		return Result{}, fmt.Errorf("empty drug name")
	}

	q := url.Values{}
	q.Set("search", fmt.Sprintf(`openfda.brand_name:%q OR openfda.generic_name:%q`, drug, drug))
	q.Set("limit", "1")

	var payload struct {
		Results []struct {
			OpenFDA struct {
				BrandName   []string `json:"brand_name"`
				GenericName []string `json:"generic_name"`
			} `json:"openfda"`
			Purpose          []string `json:"purpose"`
			Warnings         []string `json:"warnings"`
			ActiveIngredient []string `json:"active_ingredient"`
			Dosage           []string `json:"dosage_and_administration"`
			AdverseReactions []string `json:"adverse_reactions"`
			DrugInteractions []string `json:"drug_interactions"`
		} `json:"results"`
	}

	err := g.getJSON(ctx, g.cfg.DrugFactsBaseURL, "/drug/label.json", q, &payload)
	if err != nil {
		// openFDA answers 404 for "no matching label"; that is a
		// definitive empty result, not an outage.
		var he *httpError
		if errors.As(err, &he) && he.status == 404 {
			return Result{Provider: KindDrugFacts, Available: true}, nil
		}
		return Result{}, err
	}

	res := Result{Provider: KindDrugFacts, Available: true}
	if len(payload.Results) == 0 {
		return res, nil
	}

	r := payload.Results[0]
	res.Drug = &DrugFacts{
		BrandName:        first(r.OpenFDA.BrandName),
		GenericName:      first(r.OpenFDA.GenericName),
		Purpose:          first(r.Purpose),
		Warnings:         first(r.Warnings),
		ActiveIngredient: first(r.ActiveIngredient),
		Dosage:           first(r.Dosage),
		AdverseReactions: first(r.AdverseReactions),
		InteractionText:  first(r.DrugInteractions),
	}
	return res, nil
}

func first(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	return ss[0]
}
