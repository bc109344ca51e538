package run

import (
	"testing"

	"github.com/c2h5oh/datasize"
	"github.com/relex/udpsender/defs"
	"github.com/relex/udpsender/input/recordreader"
	"github.com/relex/udpsender/output/udpsender"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
output:
  host: 10.0.0.1
  port: 514
  params: a,b,c
  separator: "|"
inputs:
  - address: localhost:5170
    format: msgpack
    maxLineSize: 64KB
  - address: localhost:5171
`)
	config, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, udpsender.Config{Host: "10.0.0.1", Port: 514, Params: "a,b,c", Separator: "|"}, config.Output)
	assert.Equal(t, []InputConfig{
		{Address: "localhost:5170", Format: recordreader.FormatMsgpack, MaxLineSize: 64 * datasize.KB},
		{Address: "localhost:5171", Format: recordreader.FormatJSON, MaxLineSize: datasize.ByteSize(defs.InputMaxLineSize)},
	}, config.Inputs)
}

func TestLoadConfigFileDefaultPort(t *testing.T) {
	config, err := LoadConfigFile(writeConfigFile(t, `
output:
  host: collector
  params: msg
`))
	require.NoError(t, err)
	assert.Equal(t, udpsender.DefaultPort, config.Output.Port)
	assert.Equal(t, "", config.Output.Separator)
	assert.Empty(t, config.Inputs)
}

func TestLoadConfigFileErrors(t *testing.T) {
	cases := map[string]string{
		"missing host": `
output:
  params: a
`,
		"missing params": `
output:
  host: collector
`,
		"unknown key": `
output:
  host: collector
  params: a
  protocol: tcp
`,
		"bad format": `
output:
  host: collector
  params: a
inputs:
  - address: localhost:0
    format: xml
`,
		"oversized maxLineSize": `
output:
  host: collector
  params: a
inputs:
  - address: localhost:0
    maxLineSize: 8EB
`,
		"missing address": `
output:
  host: collector
  params: a
inputs:
  - format: json
`,
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfigFile(t, contents))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfigFile(writeConfigFile(t, "output:\n  host: collector\n"))
	assert.ErrorIs(t, err, udpsender.ErrConfigInvalid)
}
