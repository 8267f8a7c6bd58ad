package structure_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/stagewatch/internal/model"
	"github.com/slok/stagewatch/internal/structure"
)

func TestParse(t *testing.T) {
	bordered, err := json.Marshal(structure.FormatBordered(treeFixture()))
	require.NoError(t, err)

	structured, err := json.Marshal(treeFixture())
	require.NoError(t, err)

	tests := map[string]struct {
		payload []byte
		expTree *model.StageNode
		expErr  bool
	}{
		"An empty payload should return no tree.": {
			payload: []byte("  "),
		},
		"A null payload should return no tree.": {
			payload: []byte("null"),
		},
		"An empty array should return no tree.": {
			payload: []byte("[]"),
		},
		"An empty object should return no tree.": {
			payload: []byte("{}"),
		},
		"A bordered payload should be parsed.": {
			payload: bordered,
			expTree: func() *model.StageNode { t := treeFixture(); return &t }(),
		},
		"A structured payload should be used as is.": {
			payload: structured,
			expTree: func() *model.StageNode { t := treeFixture(); return &t }(),
		},
		"A structured payload wrapped in an array should use the first item.": {
			payload: []byte(`[{"stage_name": "root", "stage_mode": "serial", "func_name": "f", "visited": false, "next_stages": []}]`),
			expTree: &model.StageNode{Name: "root", Mode: "serial", FuncName: "f", Next: []model.StageNode{}},
		},
		"A bordered payload with a malformed root should return no tree.": {
			payload: []byte(`["+--+", "| nope |", "+--+"]`),
		},
		"A structured payload without stage name should fail.": {
			payload: []byte(`{"stage_mode": "serial"}`),
			expErr:  true,
		},
		"A structured payload with invalid children should fail.": {
			payload: []byte(`{"stage_name": "root", "next_stages": "a"}`),
			expErr:  true,
		},
		"Invalid JSON should fail.": {
			payload: []byte(`{"stage_name": `),
			expErr:  true,
		},
		"An unknown payload should fail.": {
			payload: []byte(`42`),
			expErr:  true,
		},
		"An array of numbers should fail.": {
			payload: []byte(`[1, 2]`),
			expErr:  true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := structure.Parse(test.payload)

			if test.expErr {
				assert.Error(t, err)
			} else if assert.NoError(t, err) {
				assert.Equal(t, test.expTree, got)
			}
		})
	}
}
