package planning

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func TestAmountOrNote_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]AmountOrNote{"a": Amount(1234.5), "b": Note(NoAdditionalSIP)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1234.5,"b":"No additional SIP required."}`, string(data))

	var decoded map[string]AmountOrNote
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Amount(1234.5), decoded["a"])
	assert.Equal(t, Note(NoAdditionalSIP), decoded["b"])

	var bad AmountOrNote
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &bad))
}

func TestAmountOrNote_Msgpack(t *testing.T) {
	in := Summary{RequestID: "r", TotalMonthlySIP: Note(SIPNotRequired), SuggestedSIP: Amount(99.99)}

	data, err := msgpack.Marshal(&in)
	require.NoError(t, err)

	var out Summary
	require.NoError(t, msgpack.Unmarshal(data, &out))
	assert.Equal(t, in.TotalMonthlySIP, out.TotalMonthlySIP)
	assert.Equal(t, in.SuggestedSIP, out.SuggestedSIP)
	assert.True(t, out.GoalAlreadyMet())
}

func TestAmountOrNote_String(t *testing.T) {
	assert.Equal(t, "1500.00", Amount(1500).String())
	assert.Equal(t, SIPNotRequired, Note(SIPNotRequired).String())
}
