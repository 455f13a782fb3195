package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

// Error codes for configuration failures.
const (
	ErrCodeRead    = "C001" // config file could not be read
	ErrCodeCompile = "C002" // CUE syntax error
	ErrCodeSchema  = "C003" // value violates the schema
	ErrCodeDecode  = "C004" // value could not be decoded
)

// Error is a configuration failure with an optional CUE position.
type Error struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Policy says how an ingested answer combines with the stored column value.
type Policy string

const (
	// PolicyReplace overwrites the stored value.
	PolicyReplace Policy = "replace"
	// PolicyAppend adds a date-stamped entry to the pipe list.
	PolicyAppend Policy = "append"
	// PolicyMerge unions the answer's items into the pipe list.
	PolicyMerge Policy = "merge"
)

// Columns names the directory columns with a fixed meaning.
type Columns struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Goals   string `json:"goals"`
	History string `json:"history"`
}

// Form maps domain fields (column names and session context such as
// appointment_id) to the external form's field ids.
type Form struct {
	Name    string            `json:"-"`
	BaseURL string            `json:"base_url"`
	Fields  map[string]string `json:"fields"`
	Prefill []string          `json:"prefill"`
}

// Config is the decoded configuration.
type Config struct {
	Columns  Columns           `json:"columns"`
	Forms    map[string]Form   `json:"forms"`
	Policies map[string]Policy `json:"policies"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Message: fmt.Sprintf("reading config: %v", err)}
	}
	return Parse(data, path)
}

// Default returns the configuration produced by an empty file.
func Default() *Config {
	cfg, err := Parse(nil, "default.cue")
	if err != nil {
		panic(fmt.Sprintf("config: embedded schema is invalid: %v", err))
	}
	return cfg
}

// Parse unifies data with the schema and decodes the result. filename is
// used for error positions only.
func Parse(data []byte, filename string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fromCUE(ErrCodeCompile, err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	file := ctx.CompileBytes(data, cue.Filename(filename))
	if err := file.Err(); err != nil {
		return nil, fromCUE(ErrCodeCompile, err)
	}

	value := def.Unify(file)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fromCUE(ErrCodeSchema, err)
	}

	var cfg Config
	if err := value.Decode(&cfg); err != nil {
		return nil, fromCUE(ErrCodeDecode, err)
	}
	if cfg.Forms == nil {
		cfg.Forms = map[string]Form{}
	}
	if cfg.Policies == nil {
		cfg.Policies = map[string]Policy{}
	}
	for name, form := range cfg.Forms {
		form.Name = name
		if form.Fields == nil {
			form.Fields = map[string]string{}
		}
		cfg.Forms[name] = form
	}

	if err := cfg.check(value); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// check enforces the rules the schema cannot express.
func (c *Config) check(value cue.Value) error {
	for _, name := range c.FormNames() {
		form := c.Forms[name]
		for _, field := range form.Prefill {
			if _, ok := form.Fields[field]; !ok {
				pos := value.LookupPath(cue.MakePath(cue.Str("forms"), cue.Str(name), cue.Str("prefill"))).Pos()
				return &Error{
					Code:    ErrCodeSchema,
					Message: fmt.Sprintf("form %q prefills %q but has no field id for it", name, field),
					Pos:     pos,
				}
			}
		}
	}
	return nil
}

// FormNames returns the configured form names in sorted order.
func (c *Config) FormNames() []string {
	names := make([]string, 0, len(c.Forms))
	for name := range c.Forms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Form returns the named form.
func (c *Config) Form(name string) (Form, bool) {
	f, ok := c.Forms[name]
	return f, ok
}

// PolicyFor returns the ingest policy for a column. The history column
// defaults to append; every other column defaults to replace.
func (c *Config) PolicyFor(column string) Policy {
	if p, ok := c.Policies[column]; ok {
		return p
	}
	if column == c.Columns.History {
		return PolicyAppend
	}
	return PolicyReplace
}

// FieldFor returns the external field id for a domain field.
func (f Form) FieldFor(domainField string) (string, bool) {
	id, ok := f.Fields[domainField]
	return id, ok
}

// DomainFieldFor returns the domain field mapped to an external field id.
// When several domain fields share an id the alphabetically first wins.
func (f Form) DomainFieldFor(fieldID string) (string, bool) {
	var found string
	for domain, id := range f.Fields {
		if id != fieldID {
			continue
		}
		if found == "" || domain < found {
			found = domain
		}
	}
	return found, found != ""
}

func fromCUE(code string, err error) *Error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: code, Message: err.Error()}
	}
	first := errs[0]
	e := &Error{Code: code, Message: first.Error()}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
