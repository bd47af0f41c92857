package resolve

import (
	"context"
	"regexp"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/exprun/internal/config"
	"github.com/vk/exprun/internal/ctxlog"
)

// defaultMaxPasses bounds the fixed-point iteration. Legitimate reference
// chains resolve in one pass per hop; anything still changing after this
// many full-tree passes is cyclic.
const defaultMaxPasses = 20

var (
	envBracePattern = regexp.MustCompile(`\$\{([^}]+)\}`)
	envPattern      = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	selfRefPattern  = regexp.MustCompile(`\{([A-Za-z0-9_][A-Za-z0-9_.]*)\}`)
	fullSelfRefOnly = regexp.MustCompile(`^\{([A-Za-z0-9_][A-Za-z0-9_.]*)\}$`)
)

// Resolver expands $NAME / ${NAME} environment references and
// {dotted.key.path} self-references over a payload tree.
type Resolver struct {
	env       Environment
	maxPasses int
}

// New returns a resolver over the given environment snapshot.
func New(env Environment) *Resolver {
	return &Resolver{env: env, maxPasses: defaultMaxPasses}
}

// Resolve expands every substitution token in the payload, iterating
// full-tree passes to a fixed point. Unset environment variables, dangling
// self-references in unquoted scalars, and non-terminating cycles all fail
// with UnresolvedVariableError.
func (r *Resolver) Resolve(ctx context.Context, payload config.Payload) (config.Payload, error) {
	logger := ctxlog.FromContext(ctx)

	flat := config.Flatten(payload)
	keys := config.SortedKeys(flat)

	passes := 0
	for {
		passes++
		changed := false
		for _, key := range keys {
			v := flat[key]
			nv, err := r.resolveLeaf(key, v, flat)
			if err != nil {
				return nil, err
			}
			if !nv.RawEquals(v) {
				flat[key] = nv
				changed = true
			}
		}
		if !changed {
			break
		}
		if passes >= r.maxPasses {
			key, token := firstPending(keys, flat)
			return nil, &config.UnresolvedVariableError{
				Key:    key,
				Token:  token,
				Reason: "substitution did not reach a fixed point; cyclic self-reference?",
			}
		}
	}
	logger.Debug("Variable resolution reached a fixed point.", "passes", passes, "keys", len(keys))

	// A token can survive the fixed point when it substitutes to itself,
	// e.g. {a: "{a}"}, or when two keys stabilize on each other's tokens.
	for _, key := range keys {
		if token, ok := pendingToken(flat[key], flat); ok {
			return nil, &config.UnresolvedVariableError{Key: key, Token: token, Reason: "cyclic self-reference"}
		}
	}

	return config.Unflatten(flat)
}

// ResolveString expands tokens in a single string against an already
// resolved table and returns the final string form. It is used for the
// __run__ fields, whose self-reference namespace is the resolved payload.
func (r *Resolver) ResolveString(field, s string, flat map[string]cty.Value) (string, error) {
	v := cty.StringVal(s)
	for pass := 0; pass < r.maxPasses; pass++ {
		nv, err := r.resolveLeaf(field, v, flat)
		if err != nil {
			return "", err
		}
		if nv.RawEquals(v) {
			if token, ok := pendingToken(nv, flat); ok {
				return "", &config.UnresolvedVariableError{Key: field, Token: token, Reason: "cyclic self-reference"}
			}
			return config.StringForm(nv), nil
		}
		v = nv
	}
	return "", &config.UnresolvedVariableError{
		Key:    field,
		Token:  s,
		Reason: "substitution did not reach a fixed point; cyclic self-reference?",
	}
}

// resolveLeaf runs one environment pass and one self-reference pass over a
// single leaf. Sequence leaves resolve element-wise. Non-string scalars
// pass through untouched.
func (r *Resolver) resolveLeaf(key string, v cty.Value, flat map[string]cty.Value) (cty.Value, error) {
	leaf, marks := v.Unmark()

	if leaf != cty.NilVal && !leaf.IsNull() && leaf.Type().IsTupleType() {
		elems := leaf.AsValueSlice()
		out := make([]cty.Value, len(elems))
		for i, el := range elems {
			nel, err := r.resolveLeaf(key, el, flat)
			if err != nil {
				return cty.NilVal, err
			}
			out[i] = nel
		}
		if len(out) == 0 {
			return v, nil
		}
		return cty.TupleVal(out).WithMarks(marks), nil
	}

	if leaf == cty.NilVal || leaf.IsNull() || leaf.Type() != cty.String {
		return v, nil
	}
	s := leaf.AsString()
	quoted := len(marks) > 0

	if strings.Contains(s, "$") {
		expanded, err := r.substituteEnv(key, s)
		if err != nil {
			return cty.NilVal, err
		}
		if expanded != s {
			// A substituted value whose result reads as a typed literal is
			// re-parsed to that type; anything else stays textual.
			parsed := config.ParseScalar(expanded)
			if parsed.Type() != cty.String {
				return parsed.WithMarks(marks), nil
			}
			s = expanded
		}
	}

	if strings.Contains(s, "{") {
		return r.substituteSelf(key, s, quoted, marks, flat)
	}
	return cty.StringVal(s).WithMarks(marks), nil
}

// substituteEnv expands ${NAME} and $NAME tokens. ${NAME} consumes
// everything up to the closing brace; $NAME consumes the longest
// identifier run. An unset variable is always an error, quoted or not.
func (r *Resolver) substituteEnv(key, s string) (string, error) {
	var rerr error
	lookup := func(token, name string) string {
		if value, ok := r.env[name]; ok {
			return value
		}
		if rerr == nil {
			rerr = &config.UnresolvedVariableError{Key: key, Token: token, Reason: "environment variable is not set"}
		}
		return token
	}
	s = envBracePattern.ReplaceAllStringFunc(s, func(token string) string {
		return lookup(token, token[2:len(token)-1])
	})
	s = envPattern.ReplaceAllStringFunc(s, func(token string) string {
		return lookup(token, token[1:])
	})
	if rerr != nil {
		return "", rerr
	}
	return s, nil
}

// substituteSelf expands {dotted.key.path} tokens against the flat table.
// A token that is the entire value keeps the referenced value's type; a
// token inside a larger string renders via StringForm. Unresolvable tokens
// are fatal unless the scalar was quoted in its source, in which case they
// stay verbatim.
func (r *Resolver) substituteSelf(key, s string, quoted bool, marks cty.ValueMarks, flat map[string]cty.Value) (cty.Value, error) {
	if m := fullSelfRefOnly.FindStringSubmatch(s); m != nil {
		if ref, ok := flat[m[1]]; ok {
			return ref, nil
		}
		if quoted {
			return cty.StringVal(s).WithMarks(marks), nil
		}
		return cty.NilVal, &config.UnresolvedVariableError{Key: key, Token: s, Reason: "no such key in configuration"}
	}

	var rerr error
	out := selfRefPattern.ReplaceAllStringFunc(s, func(token string) string {
		refKey := token[1 : len(token)-1]
		if ref, ok := flat[refKey]; ok {
			return config.StringForm(ref)
		}
		if quoted {
			return token
		}
		if rerr == nil {
			rerr = &config.UnresolvedVariableError{Key: key, Token: token, Reason: "no such key in configuration"}
		}
		return token
	})
	if rerr != nil {
		return cty.NilVal, rerr
	}
	return cty.StringVal(out).WithMarks(marks), nil
}

// pendingToken reports a self-reference token that survived the fixed
// point even though its key exists in the table. Quoting escapes tokens
// whose key does not exist; a token that could substitute but did not is a
// cycle regardless of quoting.
func pendingToken(v cty.Value, flat map[string]cty.Value) (string, bool) {
	leaf, _ := v.UnmarkDeep()
	if leaf == cty.NilVal || leaf.IsNull() {
		return "", false
	}
	if leaf.Type().IsTupleType() {
		for _, el := range leaf.AsValueSlice() {
			if token, ok := pendingToken(el, flat); ok {
				return token, true
			}
		}
		return "", false
	}
	if leaf.Type() != cty.String {
		return "", false
	}
	for _, m := range selfRefPattern.FindAllStringSubmatch(leaf.AsString(), -1) {
		if _, ok := flat[m[1]]; ok {
			return m[0], true
		}
	}
	return "", false
}

func firstPending(keys []string, flat map[string]cty.Value) (string, string) {
	for _, key := range keys {
		if token, ok := pendingToken(flat[key], flat); ok {
			return key, token
		}
	}
	// Fall back to any leaf still holding token-shaped text.
	for _, key := range keys {
		leaf, _ := flat[key].UnmarkDeep()
		if leaf != cty.NilVal && !leaf.IsNull() && leaf.Type() == cty.String {
			if token := selfRefPattern.FindString(leaf.AsString()); token != "" {
				return key, token
			}
		}
	}
	return "", ""
}
