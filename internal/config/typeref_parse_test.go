package config_test

import (
	"testing"

	"github.com/hanpama/protograph/internal/config"
	"github.com/stretchr/testify/require"
)

func TestParseTypeRef(t *testing.T) {
	cases := map[string]string{
		"String":    "String",
		"String!":   "String!",
		"[String]":  "[String]",
		"[String!]": "[String!]",
		"[String]!": "[String]!",
		"[String!]!": "[String!]!",
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			ref, err := config.ParseTypeRef(in)
			require.NoError(t, err)
			require.Equal(t, want, ref.String())
		})
	}
}

func TestParseTypeRef_BaseName(t *testing.T) {
	ref, err := config.ParseTypeRef("[User!]!")
	require.NoError(t, err)
	require.Equal(t, "User", ref.BaseName())
	require.True(t, ref.IsNonNull())
}

func TestParseTypeRef_Errors(t *testing.T) {
	_, err := config.ParseTypeRef("[String")
	require.Error(t, err)
	_, err = config.ParseTypeRef("")
	require.Error(t, err)
}
