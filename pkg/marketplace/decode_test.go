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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleInventory = `{
  "success": true,
  "hostnodes": {
    "zz-host": {
      "specs": {
        "cpu": {"type": "AMD 3995WX", "amount": 64, "price": 0.003},
        "gpu": {
          "geforcertx4090-pcie-24gb": {"amount": 2, "price": 0.35},
          "a100-pcie-80gb": {"amount": 0, "price": 1.2}
        }
      },
      "location": {"city": "Oslo", "country": "Norway"},
      "status": {"online": true}
    },
    "aa-host": {
      "cpu": {"type": "Intel Xeon", "amount": 8, "price": 0.01},
      "gpu": {},
      "location": {"city": "X", "country": "Y"},
      "status": {"online": false}
    },
    "broken": {
      "specs": {"gpu": {}},
      "location": {"city": "X", "country": "Y"},
      "status": {"online": true}
    }
  }
}`

func TestDecodeSnapshot(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(sampleInventory))
	require.NoError(t, err)
	require.True(t, snap.Success)
	require.Len(t, snap.Hosts, 2)

	// document order, not key order
	assert.Equal(t, "zz-host", snap.Hosts[0].ID)
	assert.Equal(t, "aa-host", snap.Hosts[1].ID)

	h := snap.Hosts[0]
	assert.Equal(t, "AMD 3995WX", h.CPU.Type)
	assert.Equal(t, 64, h.CPU.Amount)
	assert.InDelta(t, 0.003, h.CPU.Price, 1e-9)
	assert.True(t, h.Online)
	assert.Equal(t, "Oslo, Norway", h.Location.String())
	require.Len(t, h.GPUs, 2)
	assert.Equal(t, "geforcertx4090-pcie-24gb", h.GPUs[0].Model)
	assert.Equal(t, 2, h.GPUs[0].Amount)
	assert.Equal(t, "a100-pcie-80gb", h.GPUs[1].Model)

	assert.Empty(t, snap.Hosts[1].GPUs)
	assert.False(t, snap.Hosts[1].Online)

	require.Len(t, snap.Rejected, 1)
	var mhe *MalformedHostError
	require.True(t, errors.As(snap.Rejected[0], &mhe))
	assert.Equal(t, "broken", mhe.ID)
	assert.Equal(t, "specs.cpu", mhe.Field)
}

func TestDecodeSnapshotUnsuccessful(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"success": false, "hostnodes": {"h": {}}}`))
	require.NoError(t, err)
	assert.False(t, snap.Success)
	assert.Empty(t, snap.Hosts)

	snap, err = DecodeSnapshot([]byte(`{"hostnodes": {}}`))
	require.NoError(t, err)
	assert.False(t, snap.Success)
}

func TestDecodeSnapshotEmptyInventory(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"success": true, "hostnodes": {}}`))
	require.NoError(t, err)
	assert.True(t, snap.Success)
	assert.Empty(t, snap.Hosts)

	snap, err = DecodeSnapshot([]byte(`{"success": true}`))
	require.NoError(t, err)
	assert.Empty(t, snap.Hosts)
}

func TestDecodeSnapshotMalformedDocument(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"success": tru`))
	assert.Error(t, err)

	_, err = DecodeSnapshot([]byte(`{"success": true, "hostnodes": []}`))
	assert.Error(t, err)
}

func TestDecodeSnapshotRejectsRecords(t *testing.T) {
	tests := []struct {
		name  string
		host  string
		field string
	}{
		{"missing cpu type", `{"specs":{"cpu":{"amount":1,"price":1}},"location":{"city":"a","country":"b"},"status":{"online":true}}`, "specs.cpu.type"},
		{"missing cpu amount", `{"specs":{"cpu":{"type":"x","price":1}},"location":{"city":"a","country":"b"},"status":{"online":true}}`, "specs.cpu.amount"},
		{"missing cpu price", `{"specs":{"cpu":{"type":"x","amount":1}},"location":{"city":"a","country":"b"},"status":{"online":true}}`, "specs.cpu.price"},
		{"missing location", `{"specs":{"cpu":{"type":"x","amount":1,"price":1}},"status":{"online":true}}`, "location"},
		{"missing status", `{"specs":{"cpu":{"type":"x","amount":1,"price":1}},"location":{"city":"a","country":"b"}}`, "status.online"},
		{"gpu without price", `{"specs":{"cpu":{"type":"x","amount":1,"price":1},"gpu":{"4090":{"amount":1}}},"location":{"city":"a","country":"b"},"status":{"online":true}}`, "specs.gpu.4090.amount/price"},
		{"not an object", `42`, "record"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := `{"success": true, "hostnodes": {"bad": ` + tt.host + `, "good": {"cpu":{"type":"x","amount":1,"price":1},"location":{"city":"a","country":"b"},"status":{"online":true}}}}`
			snap, err := DecodeSnapshot([]byte(doc))
			require.NoError(t, err)
			require.Len(t, snap.Hosts, 1)
			assert.Equal(t, "good", snap.Hosts[0].ID)
			require.Len(t, snap.Rejected, 1)

			var mhe *MalformedHostError
			require.True(t, errors.As(snap.Rejected[0], &mhe))
			assert.Equal(t, tt.field, mhe.Field)
		})
	}
}
