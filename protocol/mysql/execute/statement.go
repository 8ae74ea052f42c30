// Package execute handles the prepared statement side of the MySQL binary
// protocol: the statement registry, COM_STMT_EXECUTE parameter parsing and
// binary result set rows.
package execute

import (
	"sync"

	"github.com/guileen/shardproxy/errors"
	"github.com/guileen/shardproxy/protocol/mysql/constant"
	"github.com/xwb1989/sqlparser"
)

// ParameterType is the two-byte type pair a client sends for each parameter
type ParameterType struct {
	Type     constant.ColumnType
	Unsigned bool
}

// Statement is a prepared statement known to the proxy
type Statement struct {
	ID             uint32
	SQL            string
	ParameterCount int

	mu    sync.RWMutex
	types []ParameterType
}

// ParameterTypes returns the types bound by the most recent execution that
// carried them, or nil before the first one.
func (s *Statement) ParameterTypes() []ParameterType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.types == nil {
		return nil
	}
	out := make([]ParameterType, len(s.types))
	copy(out, s.types)
	return out
}

func (s *Statement) bindTypes(types []ParameterType) {
	s.mu.Lock()
	s.types = types
	s.mu.Unlock()
}

// StatementRegistry maps statement ids to prepared statements. It is safe
// for concurrent use.
type StatementRegistry struct {
	mu         sync.RWMutex
	statements map[uint32]*Statement
	nextID     uint32
	maxSize    int
}

// NewStatementRegistry creates a registry holding at most maxSize
// statements. A non-positive maxSize means no limit.
func NewStatementRegistry(maxSize int) *StatementRegistry {
	return &StatementRegistry{
		statements: make(map[uint32]*Statement),
		maxSize:    maxSize,
	}
}

// Prepare registers sql under a fresh statement id
func (r *StatementRegistry) Prepare(sql string) (*Statement, error) {
	count, err := CountPlaceholders(sql)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.maxSize > 0 && len(r.statements) >= r.maxSize {
		return nil, errors.NewResourceErrorf("Prepare", "prepared statement limit %d reached", r.maxSize)
	}

	// ids wrap around; skip 0 and ids still held by live statements
	for {
		r.nextID++
		if _, taken := r.statements[r.nextID]; r.nextID != 0 && !taken {
			break
		}
	}
	stmt := &Statement{ID: r.nextID, SQL: sql, ParameterCount: count}
	r.statements[stmt.ID] = stmt
	return stmt, nil
}

// Get returns the statement registered under id
func (r *StatementRegistry) Get(id uint32) (*Statement, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stmt, ok := r.statements[id]
	return stmt, ok
}

// Lookup is Get reporting a missing statement as an ErrCodeNotFound error
func (r *StatementRegistry) Lookup(id uint32) (*Statement, error) {
	stmt, ok := r.Get(id)
	if !ok {
		return nil, errors.Errorf(errors.ErrCodeNotFound, "statement %d not found", id)
	}
	return stmt, nil
}

// Close removes the statement registered under id. Closing an unknown id is
// not an error, matching COM_STMT_CLOSE which has no response.
func (r *StatementRegistry) Close(id uint32) {
	r.mu.Lock()
	delete(r.statements, id)
	r.mu.Unlock()
}

// Len returns the number of registered statements
func (r *StatementRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.statements)
}

// CountPlaceholders returns the number of ? placeholders in sql. Statements
// the parser does not understand are counted token by token.
func CountPlaceholders(sql string) (int, error) {
	stmt, err := sqlparser.Parse(sql)
	if err != nil {
		return countPlaceholderTokens(sql)
	}

	count := 0
	err = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if val, ok := node.(*sqlparser.SQLVal); ok && val.Type == sqlparser.ValArg {
			count++
		}
		return true, nil
	}, stmt)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeValidation, "CountPlaceholders")
	}
	return count, nil
}

func countPlaceholderTokens(sql string) (int, error) {
	tokenizer := sqlparser.NewStringTokenizer(sql)
	count := 0
	for {
		typ, _ := tokenizer.Scan()
		switch typ {
		case 0:
			return count, nil
		case sqlparser.LEX_ERROR:
			return 0, errors.NewValidationErrorf("CountPlaceholders", "cannot tokenize statement at position %d", tokenizer.Position)
		case sqlparser.VALUE_ARG:
			count++
		}
	}
}
