package injector

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var durationType = reflect.TypeFor[time.Duration]()

// literalKey returns the lookup key of id: the value of its Named qualifier.
// Identities without a Named qualifier have no key.
func literalKey(id Identity) (string, bool) {
	n, ok := id.Qualifier.(Named)
	if !ok || n == emptyString {
		return emptyString, false
	}
	return string(n), true
}

// EnvLiterals resolves Named identities of basic kinds from the process
// environment, e.g. a `named:"WORKING_DIR"` string field from $WORKING_DIR.
func EnvLiterals() LiteralProvider {
	return stringLiterals(os.LookupEnv)
}

// DotenvLiterals resolves Named identities of basic kinds from .env files.
// With no filenames it reads ".env" in the working directory.
func DotenvLiterals(filenames ...string) (LiteralProvider, error) {
	values, err := godotenv.Read(filenames...)
	if err != nil {
		return nil, fmt.Errorf("reading dotenv literals: %w", err)
	}
	return stringLiterals(func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}), nil
}

// YAMLLiterals resolves Named identities from the top-level keys of a YAML
// mapping. Values are decoded into the required type, so structs, slices and
// maps work as well as basic kinds.
func YAMLLiterals(r io.Reader) (LiteralProvider, error) {
	values := make(map[string]yaml.Node)
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading yaml literals: %w", err)
	}
	return func(id Identity) (any, bool, error) {
		key, ok := literalKey(id)
		if !ok {
			return nil, false, nil
		}
		node, ok := values[key]
		if !ok {
			return nil, false, nil
		}
		target := reflect.New(id.Type.Type())
		if err := node.Decode(target.Interface()); err != nil {
			return nil, false, fmt.Errorf("decoding %q: %w", key, err)
		}
		return target.Elem().Interface(), true, nil
	}, nil
}

func stringLiterals(lookup func(string) (string, bool)) LiteralProvider {
	return func(id Identity) (any, bool, error) {
		key, ok := literalKey(id)
		if !ok {
			return nil, false, nil
		}
		raw, ok := lookup(key)
		if !ok {
			return nil, false, nil
		}
		v, err := parseLiteral(raw, id.Type.Type())
		if err != nil {
			return nil, false, fmt.Errorf("parsing %q: %w", key, err)
		}
		return v, true, nil
	}
}

// parseLiteral converts raw into a value of typ, which must have a basic kind.
func parseLiteral(raw string, typ reflect.Type) (any, error) {
	v := reflect.New(typ).Elem()
	switch {
	case typ == durationType:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, err
		}
		v.SetInt(int64(d))
	case typ.Kind() == reflect.String:
		v.SetString(raw)
	case typ.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		v.SetBool(b)
	case v.CanInt():
		i, err := strconv.ParseInt(raw, 10, typ.Bits())
		if err != nil {
			return nil, err
		}
		v.SetInt(i)
	case v.CanUint():
		u, err := strconv.ParseUint(raw, 10, typ.Bits())
		if err != nil {
			return nil, err
		}
		v.SetUint(u)
	case v.CanFloat():
		f, err := strconv.ParseFloat(raw, typ.Bits())
		if err != nil {
			return nil, err
		}
		v.SetFloat(f)
	default:
		return nil, fmt.Errorf("type %s cannot be parsed from a string", typ)
	}
	return v.Interface(), nil
}
