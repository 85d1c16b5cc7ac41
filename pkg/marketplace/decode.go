/*
Copyright 2025 David Arnold
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package marketplace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gitlab.com/davidxarnold/hostwatch/pkg/core"
)

type envelope struct {
	Success   *bool           `json:"success"`
	HostNodes json.RawMessage `json:"hostnodes"`
}

type wireCPU struct {
	Type   *string  `json:"type"`
	Amount *float64 `json:"amount"`
	Price  *float64 `json:"price"`
}

type wireGPU struct {
	Amount *float64 `json:"amount"`
	Price  *float64 `json:"price"`
}

type wireSpecs struct {
	CPU *wireCPU        `json:"cpu"`
	GPU json.RawMessage `json:"gpu"`
}

type wireHost struct {
	Specs *wireSpecs `json:"specs"`
	// Some responses carry cpu/gpu at the top level instead of under specs.
	CPU      *wireCPU        `json:"cpu"`
	GPU      json.RawMessage `json:"gpu"`
	Location *struct {
		City    *string `json:"city"`
		Country *string `json:"country"`
	} `json:"location"`
	Status *struct {
		Online *bool `json:"online"`
	} `json:"status"`
}

// DecodeSnapshot parses an inventory document. Host records keep their
// document order. A record failing validation is left out of Hosts and
// reported in Rejected; only an unreadable document returns an error.
func DecodeSnapshot(data []byte) (*core.Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode inventory: %w", err)
	}

	snap := &core.Snapshot{Success: env.Success != nil && *env.Success}
	if !snap.Success {
		return snap, nil
	}

	err := decodeObject(env.HostNodes, func(id string, raw json.RawMessage) error {
		host, err := decodeHost(id, raw)
		if err != nil {
			snap.Rejected = append(snap.Rejected, err)
			return nil
		}
		snap.Hosts = append(snap.Hosts, host)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decode hostnodes: %w", err)
	}
	return snap, nil
}

func decodeHost(id string, raw json.RawMessage) (core.Host, error) {
	var w wireHost
	if err := json.Unmarshal(raw, &w); err != nil {
		return core.Host{}, &MalformedHostError{ID: id, Field: "record", Err: err}
	}

	cpu, gpu := w.CPU, w.GPU
	if w.Specs != nil {
		cpu, gpu = w.Specs.CPU, w.Specs.GPU
	}

	switch {
	case cpu == nil:
		return core.Host{}, &MalformedHostError{ID: id, Field: "specs.cpu"}
	case cpu.Type == nil:
		return core.Host{}, &MalformedHostError{ID: id, Field: "specs.cpu.type"}
	case cpu.Amount == nil:
		return core.Host{}, &MalformedHostError{ID: id, Field: "specs.cpu.amount"}
	case cpu.Price == nil:
		return core.Host{}, &MalformedHostError{ID: id, Field: "specs.cpu.price"}
	case w.Location == nil || w.Location.City == nil || w.Location.Country == nil:
		return core.Host{}, &MalformedHostError{ID: id, Field: "location"}
	case w.Status == nil || w.Status.Online == nil:
		return core.Host{}, &MalformedHostError{ID: id, Field: "status.online"}
	}

	host := core.Host{
		ID:       id,
		Location: core.Location{City: *w.Location.City, Country: *w.Location.Country},
		Online:   *w.Status.Online,
		CPU: core.CPUSpec{
			Type:   *cpu.Type,
			Amount: int(*cpu.Amount),
			Price:  *cpu.Price,
		},
	}

	err := decodeObject(gpu, func(model string, raw json.RawMessage) error {
		var g wireGPU
		if err := json.Unmarshal(raw, &g); err != nil {
			return &MalformedHostError{ID: id, Field: "specs.gpu." + model, Err: err}
		}
		if g.Amount == nil || g.Price == nil {
			return &MalformedHostError{ID: id, Field: "specs.gpu." + model + ".amount/price"}
		}
		host.GPUs = append(host.GPUs, core.GPUGroup{
			Model:  model,
			Amount: int(*g.Amount),
			Price:  *g.Price,
		})
		return nil
	})
	if err != nil {
		var mhe *MalformedHostError
		if errors.As(err, &mhe) {
			return core.Host{}, mhe
		}
		return core.Host{}, &MalformedHostError{ID: id, Field: "specs.gpu", Err: err}
	}

	return host, nil
}

// decodeObject walks a JSON object in document order. An absent or null
// value is treated as an empty object.
func decodeObject(data json.RawMessage, fn func(key string, raw json.RawMessage) error) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}
