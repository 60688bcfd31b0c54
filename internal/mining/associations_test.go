// Plantry - Grocery Intelligence for Forgetful Households
// Copyright 2026 Plantry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/plantryhq/plantry

package mining

import (
	"reflect"
	"testing"
	"time"

	"github.com/plantryhq/plantry/internal/models"
)

func tripEvents(itemLists ...[]string) []models.ShoppingEvent {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := make([]models.ShoppingEvent, len(itemLists))
	for i, items := range itemLists {
		events[i] = models.ShoppingEvent{
			ID:          string(rune('a' + i)),
			HouseholdID: "h1",
			Items:       items,
			Date:        base.AddDate(0, 0, i*7),
		}
	}
	return events
}

func defaultAssocConfig() AssociationConfig {
	return AssociationConfig{MinSupport: 0.05, MinConfidence: 0.35}
}

func TestBuildAssociationsBasic(t *testing.T) {
	events := tripEvents(
		[]string{"milk", "bread"},
		[]string{"milk", "eggs"},
		[]string{"milk", "bread", "eggs"},
	)

	model := BuildAssociations(events, defaultAssocConfig(), time.Now())

	milkRules := model.Rules["milk"]
	if len(milkRules) != 2 {
		t.Fatalf("expected 2 rules for milk, got %d: %+v", len(milkRules), milkRules)
	}
	for _, rule := range milkRules {
		if rule.Confidence != 0.667 {
			t.Errorf("milk->%s confidence = %v, want 0.667", rule.Item, rule.Confidence)
		}
		if rule.Support != 0.667 {
			t.Errorf("milk->%s support = %v, want 0.667", rule.Item, rule.Support)
		}
	}

	breadRules := model.Rules["bread"]
	var breadToMilk *models.AssociationRule
	for i := range breadRules {
		if breadRules[i].Item == "milk" {
			breadToMilk = &breadRules[i]
		}
	}
	if breadToMilk == nil {
		t.Fatalf("expected bread->milk rule, got %+v", breadRules)
	}
	if breadToMilk.Confidence != 1.0 {
		t.Errorf("bread->milk confidence = %v, want 1.0", breadToMilk.Confidence)
	}
	if breadToMilk.Lift != 1.0 {
		t.Errorf("bread->milk lift = %v, want 1.0", breadToMilk.Lift)
	}
}

func TestBuildAssociationsThresholds(t *testing.T) {
	// rice co-occurs with milk exactly once over 20 trips: support 0.05
	// passes the floor, but confidence from milk's side (1/20) does not.
	lists := make([][]string, 20)
	for i := range lists {
		lists[i] = []string{"milk"}
	}
	lists[0] = []string{"milk", "rice"}

	model := BuildAssociations(tripEvents(lists...), defaultAssocConfig(), time.Now())

	for _, rule := range model.Rules["milk"] {
		if rule.Item == "rice" {
			t.Errorf("milk->rice should be dropped below confidence floor, got %+v", rule)
		}
	}
	// From rice's side confidence is 1.0, support 0.05: both floors clear.
	riceRules := model.Rules["rice"]
	if len(riceRules) != 1 || riceRules[0].Item != "milk" {
		t.Fatalf("expected rice->milk to survive, got %+v", riceRules)
	}
	if riceRules[0].Confidence != 1.0 || riceRules[0].Support != 0.05 {
		t.Errorf("rice->milk = %+v, want confidence 1.0 support 0.05", riceRules[0])
	}
}

func TestBuildAssociationsOrdering(t *testing.T) {
	events := tripEvents(
		[]string{"milk", "bread", "eggs"},
		[]string{"milk", "bread", "eggs"},
		[]string{"milk", "bread"},
	)

	model := BuildAssociations(events, defaultAssocConfig(), time.Now())

	rules := model.Rules["milk"]
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules for milk, got %+v", rules)
	}
	// bread (conf 1.0) before eggs (conf 0.667).
	if rules[0].Item != "bread" || rules[1].Item != "eggs" {
		t.Errorf("rules not ordered by confidence: %+v", rules)
	}

	// Equal-confidence consequents order by item name: eggs->bread and
	// eggs->milk both have confidence 1.0.
	eggs := model.Rules["eggs"]
	if len(eggs) != 2 {
		t.Fatalf("expected 2 rules for eggs, got %+v", eggs)
	}
	if eggs[0].Item != "bread" || eggs[1].Item != "milk" {
		t.Errorf("equal-confidence tie not broken by item name: %+v", eggs)
	}
}

func TestBuildAssociationsDeterministic(t *testing.T) {
	events := tripEvents(
		[]string{"milk", "bread", "eggs", "butter"},
		[]string{"milk", "eggs"},
		[]string{"bread", "butter", "milk"},
		[]string{"eggs", "bread"},
	)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first := BuildAssociations(events, defaultAssocConfig(), now)
	second := BuildAssociations(events, defaultAssocConfig(), now)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("retraining on identical history produced different models")
	}
}

func TestBuildAssociationsEmptyHistory(t *testing.T) {
	model := BuildAssociations(nil, defaultAssocConfig(), time.Now())
	if model.Rules == nil {
		t.Fatal("rules map must be non-nil for empty history")
	}
	if len(model.Rules) != 0 {
		t.Errorf("expected no rules, got %+v", model.Rules)
	}
}

func TestBuildAssociationsDuplicateItemsInEvent(t *testing.T) {
	// A repeated item within one trip counts once, exactly as if the
	// list had been de-duplicated upstream.
	model := BuildAssociations(tripEvents([]string{"milk", "milk", "bread"}), defaultAssocConfig(), time.Now())

	rules := model.Rules["milk"]
	if len(rules) != 1 || rules[0].Item != "bread" {
		t.Fatalf("expected single milk->bread rule, got %+v", rules)
	}
	if rules[0].Support != 1.0 || rules[0].Confidence != 1.0 || rules[0].Lift != 1.0 {
		t.Errorf("milk->bread = %+v, want support 1.0 confidence 1.0 lift 1.0", rules[0])
	}

	want := BuildAssociations(tripEvents([]string{"milk", "bread"}), defaultAssocConfig(), model.GeneratedAt)
	if !reflect.DeepEqual(model, want) {
		t.Errorf("duplicated items changed the model:\n got %+v\nwant %+v", model, want)
	}
}

func TestBuildAssociationsSingleItemTrips(t *testing.T) {
	model := BuildAssociations(tripEvents([]string{"milk"}, []string{"milk"}), defaultAssocConfig(), time.Now())
	if len(model.Rules) != 0 {
		t.Errorf("single-item trips cannot produce rules, got %+v", model.Rules)
	}
}
