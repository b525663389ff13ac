package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// FuzzCompile checks that arbitrary template source never panics the
// compiler, and that anything the interpreter accepts also generates code.
func FuzzCompile(f *testing.F) {
	for _, seed := range []string{
		"<p>{{ props.x }}</p>",
		"<ul><li v-for=\"(item, i) in props.items\" v-if=\"i > 0\">{{{ item }}}</li></ul>",
		"<render-slot :block=\"b\" :props=\"p\" :index=\"0\"><em>x</em></render-slot>",
		"<template>\n <b>{{ a }}</b>\n</template>",
		"<a :href=\"u\" class=\"x {{ y }} z\">t</a>",
		"{{",
		"}}{{{",
		"<li v-for=\"\">",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		if _, err := Parse(src, "fuzz"); err != nil {
			return
		}
		_, err := Compile(src, "fuzz")
		require.NoError(t, err)
	})
}
