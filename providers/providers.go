// Package providers registers every backend in this module with the
// provider registry. Import it for its side effect:
//
//	import _ "github.com/randalmurphal/genstream/providers"
//
//	client, err := provider.New("generate", provider.FromEnv())
package providers

import (
	_ "github.com/randalmurphal/genstream/generate"
)
