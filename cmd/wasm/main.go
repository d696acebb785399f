//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"clusterform/internal/adapter/cache"
	"clusterform/internal/adapter/encoder"
	"clusterform/internal/adapter/memstore"
	"clusterform/internal/adapter/model"
	"clusterform/internal/domain"
	"clusterform/internal/usecase"
)

var (
	store    *memstore.MemoryStore
	classify *usecase.ClassifyUseCase
	current  *domain.Model
)

func init() {
	store = memstore.NewMemoryStore(50)
	classify = usecase.NewClassifyUseCase(cache.NewPlanCache(4, encoder.Compile), store, nil)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("clusterLoad", js.FuncOf(loadModel))
	js.Global().Set("clusterClassify", js.FuncOf(classifyValues))
	js.Global().Set("clusterRestore", js.FuncOf(restoreValues))
	js.Global().Set("clusterDemo", js.FuncOf(demoValues))
	js.Global().Set("clusterSummary", js.FuncOf(getSummary))

	<-c
}

func loadModel(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: clusterLoad(modelJSON)")
	}

	m, err := model.Parse([]byte(args[0].String()), model.FormatJSON, "browser")
	if err != nil {
		return makeError(err.Error())
	}
	if err := classify.Check(m); err != nil {
		return makeError("model is not usable: " + err.Error())
	}
	current = m

	return makeResult(map[string]interface{}{
		"success": true,
		"summary": classify.Summary(m),
	})
}

func classifyValues(this js.Value, args []js.Value) interface{} {
	if current == nil {
		return makeError("no model loaded")
	}
	if len(args) < 1 {
		return makeError("usage: clusterClassify(valuesJSON)")
	}

	var raw domain.RawValues
	if err := json.Unmarshal([]byte(args[0].String()), &raw); err != nil {
		return makeError("invalid values: " + err.Error())
	}

	outcome, err := classify.Classify(current, raw)
	if err != nil {
		// Report every field problem, not only the first.
		if verr := classify.Validate(current, raw); verr != nil {
			err = verr
		}
		return makeError(err.Error())
	}

	return makeResult(map[string]interface{}{
		"vector":  outcome.Vector,
		"ranking": outcome.Result.Ranking,
		"best":    outcome.Result.Best,
		"profile": outcome.Profile,
	})
}

func restoreValues(this js.Value, args []js.Value) interface{} {
	if current == nil {
		return makeError("no model loaded")
	}
	values, err := classify.Restore(current)
	if err != nil {
		return makeError(err.Error())
	}
	return makeResult(map[string]interface{}{
		"values": values,
	})
}

func demoValues(this js.Value, args []js.Value) interface{} {
	if current == nil {
		return makeError("no model loaded")
	}
	return makeResult(map[string]interface{}{
		"values": usecase.DemoValues(current),
	})
}

func getSummary(this js.Value, args []js.Value) interface{} {
	if current == nil {
		return makeError("no model loaded")
	}
	history, _ := store.ListHistory(10)

	features := make([]map[string]interface{}, 0, len(current.FeatureSpace))
	for _, f := range current.FeatureSpace {
		features = append(features, map[string]interface{}{
			"name":       f.Name,
			"label":      f.DisplayName(),
			"kind":       f.Kind,
			"categories": f.Categories(),
			"min":        f.Min,
			"max":        f.Max,
		})
	}

	return makeResult(map[string]interface{}{
		"summary":  classify.Summary(current),
		"features": features,
		"history":  history,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
