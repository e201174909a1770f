package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/deltaconsumer/errors"
	"github.com/teranos/deltaconsumer/logger"
	"github.com/teranos/deltaconsumer/rdf"
	"github.com/teranos/deltaconsumer/sparql"
)

// SQLiteStore keeps quads in the quads table of a migrated database and
// evaluates the store operations natively. Property paths are evaluated
// over the union of all graphs, like a SPARQL default graph.
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
	logger  *zap.SugaredLogger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a store on a database migrated with db.Migrate.
func NewSQLiteStore(db *sql.DB, timeout time.Duration, log *zap.SugaredLogger) *SQLiteStore {
	return &SQLiteStore{db: db, timeout: timeout, logger: logger.AddDBSymbol(logger.OrNop(log))}
}

// node is a term in subject or object position reduced to what the path
// walk compares.
type node struct {
	kind  rdf.Kind
	value string
}

const insertQuad = `INSERT OR IGNORE INTO quads
	(graph, s_kind, s_value, p_value, o_kind, o_value, o_lang, o_datatype)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// InsertData implements Store.
func (s *SQLiteStore) InsertData(ctx context.Context, graph string, triples []rdf.Triple) error {
	if len(triples) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertQuad)
		if err != nil {
			return errors.Wrap(err, "prepare insert")
		}
		defer stmt.Close()

		for _, t := range triples {
			if _, err := stmt.ExecContext(ctx, quadArgs(graph, t)...); err != nil {
				return errors.Wrap(err, "insert quad")
			}
		}
		return nil
	})
}

// DeleteEverywhere implements Store.
func (s *SQLiteStore) DeleteEverywhere(ctx context.Context, t rdf.Triple) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		args := quadArgs("", t)[1:]
		_, err := tx.ExecContext(ctx, `DELETE FROM quads
			WHERE s_kind = ? AND s_value = ? AND p_value = ?
			  AND o_kind = ? AND o_value = ? AND o_lang = ? AND o_datatype = ?`, args...)
		if err != nil {
			return errors.Wrap(err, "delete quad")
		}
		return nil
	})
}

// MoveTyped implements Store.
func (s *SQLiteStore) MoveTyped(ctx context.Context, from, to, typeIRI string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		subjects, err := typedSubjects(ctx, tx, from, typeIRI)
		if err != nil {
			return err
		}
		for _, subj := range subjects {
			if err := moveSubject(ctx, tx, subj, from, []string{to}); err != nil {
				return err
			}
		}
		return nil
	})
}

// MoveOwned implements Store.
func (s *SQLiteStore) MoveOwned(ctx context.Context, m sparql.OwnedMove) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		subjects, err := typedSubjects(ctx, tx, m.From, m.Type)
		if err != nil {
			return err
		}

		for _, subj := range subjects {
			owners, err := walkPath(ctx, tx, subj, m.OwnerPath)
			if err != nil {
				return err
			}

			var destinations []string
			for _, owner := range owners {
				ids, err := objectValues(ctx, tx, m.Public, owner, m.IDPredicate)
				if err != nil {
					return err
				}
				for _, id := range ids {
					destinations = append(destinations, m.GraphPrefix+id)
				}
			}
			if len(destinations) == 0 {
				continue
			}
			if err := moveSubject(ctx, tx, subj, m.From, destinations); err != nil {
				return err
			}
		}
		return nil
	})
}

// CountSubjects implements Store.
func (s *SQLiteStore) CountSubjects(ctx context.Context, graph string) (int, error) {
	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (SELECT DISTINCT s_kind, s_value FROM quads WHERE graph = ?)`, graph).Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "count subjects")
	}
	return n, nil
}

// Triples returns the triples of graph, sorted for stable comparison.
func (s *SQLiteStore) Triples(ctx context.Context, graph string) ([]rdf.Triple, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT s_kind, s_value, p_value, o_kind, o_value, o_lang, o_datatype
		FROM quads WHERE graph = ?
		ORDER BY s_value, p_value, o_value, o_kind, o_lang, o_datatype`, graph)
	if err != nil {
		return nil, errors.Wrap(err, "query triples")
	}
	defer rows.Close()

	var triples []rdf.Triple
	for rows.Next() {
		var (
			sKind, oKind                           int
			sValue, pValue, oValue, oLang, oDataty string
		)
		if err := rows.Scan(&sKind, &sValue, &pValue, &oKind, &oValue, &oLang, &oDataty); err != nil {
			return nil, errors.Wrap(err, "scan triple")
		}
		triples = append(triples, rdf.Triple{
			Subject:   rdf.Term{Kind: rdf.Kind(sKind), Value: sValue},
			Predicate: rdf.URI(pValue),
			Object:    rdf.Term{Kind: rdf.Kind(oKind), Value: oValue, Lang: oLang, Datatype: oDataty},
		})
	}
	return triples, rows.Err()
}

// Graphs returns the names of all non-empty graphs, sorted.
func (s *SQLiteStore) Graphs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT graph FROM quads`)
	if err != nil {
		return nil, errors.Wrap(err, "query graphs")
	}
	defer rows.Close()

	var graphs []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, errors.Wrap(err, "scan graph")
		}
		graphs = append(graphs, g)
	}
	sort.Strings(graphs)
	return graphs, rows.Err()
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	ctx, cancel := operationContext(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

func quadArgs(graph string, t rdf.Triple) []interface{} {
	subj, obj := storedTerm(t.Subject), storedTerm(t.Object)
	return []interface{}{
		graph,
		int(subj.Kind), subj.Value,
		t.Predicate.Value,
		int(obj.Kind), obj.Value, obj.Lang, obj.Datatype,
	}
}

// storedTerm stores an unrecognized term as a plain literal, the form the
// statement encoder writes it in.
func storedTerm(t rdf.Term) rdf.Term {
	if t.Kind == rdf.KindUnknown {
		return rdf.Literal(t.Value)
	}
	return t
}

func typedSubjects(ctx context.Context, tx *sql.Tx, graph, typeIRI string) ([]node, error) {
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT s_kind, s_value FROM quads
		WHERE graph = ? AND p_value = ? AND o_kind = ? AND o_value = ?
		ORDER BY s_value`, graph, rdf.RDFType, int(rdf.KindURI), typeIRI)
	if err != nil {
		return nil, errors.Wrap(err, "query typed subjects")
	}
	return scanNodes(rows)
}

// walkPath returns the nodes reachable from start along path.
func walkPath(ctx context.Context, tx *sql.Tx, start node, path []sparql.PredicateStep) ([]node, error) {
	frontier := []node{start}
	for _, step := range path {
		next := make(map[node]struct{})
		for _, n := range frontier {
			var (
				rows *sql.Rows
				err  error
			)
			if step.Inverse {
				rows, err = tx.QueryContext(ctx, `SELECT DISTINCT s_kind, s_value FROM quads
					WHERE p_value = ? AND o_kind = ? AND o_value = ?`, step.Predicate, int(n.kind), n.value)
			} else {
				rows, err = tx.QueryContext(ctx, `SELECT DISTINCT o_kind, o_value FROM quads
					WHERE p_value = ? AND s_kind = ? AND s_value = ?`, step.Predicate, int(n.kind), n.value)
			}
			if err != nil {
				return nil, errors.Wrapf(err, "follow %s", step)
			}
			nodes, err := scanNodes(rows)
			if err != nil {
				return nil, err
			}
			for _, m := range nodes {
				next[m] = struct{}{}
			}
		}
		frontier = frontier[:0]
		for n := range next {
			frontier = append(frontier, n)
		}
		if len(frontier) == 0 {
			return nil, nil
		}
	}
	sort.Slice(frontier, func(i, j int) bool { return frontier[i].value < frontier[j].value })
	return frontier, nil
}

func objectValues(ctx context.Context, tx *sql.Tx, graph string, subject node, predicate string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT o_value FROM quads
		WHERE graph = ? AND s_kind = ? AND s_value = ? AND p_value = ?
		ORDER BY o_value`, graph, int(subject.kind), subject.value, predicate)
	if err != nil {
		return nil, errors.Wrap(err, "query object values")
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan object value")
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// moveSubject copies every triple of subj in from into each destination,
// then removes them from from.
func moveSubject(ctx context.Context, tx *sql.Tx, subj node, from string, destinations []string) error {
	for _, to := range destinations {
		if to == from {
			continue
		}
		_, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO quads
			(graph, s_kind, s_value, p_value, o_kind, o_value, o_lang, o_datatype)
			SELECT ?, s_kind, s_value, p_value, o_kind, o_value, o_lang, o_datatype
			FROM quads WHERE graph = ? AND s_kind = ? AND s_value = ?`,
			to, from, int(subj.kind), subj.value)
		if err != nil {
			return errors.Wrapf(err, "copy %s to %s", subj.value, to)
		}
	}
	for _, to := range destinations {
		if to == from {
			return nil
		}
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM quads WHERE graph = ? AND s_kind = ? AND s_value = ?`,
		from, int(subj.kind), subj.value)
	if err != nil {
		return errors.Wrapf(err, "remove %s from %s", subj.value, from)
	}
	return nil
}

func scanNodes(rows *sql.Rows) ([]node, error) {
	defer rows.Close()

	var nodes []node
	for rows.Next() {
		var (
			kind  int
			value string
		)
		if err := rows.Scan(&kind, &value); err != nil {
			return nil, errors.Wrap(err, "scan node")
		}
		nodes = append(nodes, node{kind: rdf.Kind(kind), value: value})
	}
	return nodes, rows.Err()
}
