package ql

import (
	"fmt"
	"strings"

	"github.com/YoEight/eventdb/value"
)

// ExprKey renders any expression subtree at ref into the same canonical
// textual form used by AppKey, for callers (the aggregate query
// pipeline's completion pass) that need to recognize when a projection
// subtree is syntactically identical to some other expression — for
// example, a GROUP BY key expression repeated inside the projection.
func (a *Arena) ExprKey(ref ExprRef) string {
	var sb strings.Builder
	a.render(&sb, ref)
	return sb.String()
}

// AppKey renders the App node at ref into a canonical string keyed by
// function name plus the literal argument subtree, per spec.md §9
// "Aggregate deduplication": aggregate calls are keyed by the
// application node's identity, which includes the literal argument
// subtree, so that two textually identical aggregate calls (e.g.
// sum(data.amount) appearing in both the projection and an ORDER BY)
// fold into a single accumulator per group.
//
// AppKey panics if ref does not refer to a KApp node; callers are
// expected to have already classified the node via Arena.Kind.
func (a *Arena) AppKey(ref ExprRef) string {
	n := a.at(ref)
	if n.kind != KApp {
		panic("ql: AppKey called on non-application node")
	}
	var sb strings.Builder
	sb.WriteString(n.appName)
	sb.WriteByte('(')
	for i, arg := range n.appArgs {
		if i > 0 {
			sb.WriteByte(',')
		}
		a.render(&sb, arg)
	}
	sb.WriteByte(')')
	return sb.String()
}

// render writes a canonical textual form of the subtree at ref, used
// only to build dedup keys; it is not a general-purpose pretty-printer.
func (a *Arena) render(sb *strings.Builder, ref ExprRef) {
	if ref == NoExpr {
		sb.WriteString("<none>")
		return
	}
	n := a.at(ref)
	switch n.kind {
	case KLit:
		sb.WriteString(value.Key(n.lit))
	case KIdent:
		sb.WriteString(n.ident)
	case KBinary:
		sb.WriteByte('(')
		a.render(sb, n.left)
		fmt.Fprintf(sb, " %s ", n.binOp)
		a.render(sb, n.right)
		sb.WriteByte(')')
	case KUnary:
		fmt.Fprintf(sb, "%s", n.unOp)
		a.render(sb, n.left)
	case KApp:
		sb.WriteString(n.appName)
		sb.WriteByte('(')
		for i, arg := range n.appArgs {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.render(sb, arg)
		}
		sb.WriteByte(')')
	case KField:
		a.render(sb, n.fieldBase)
		sb.WriteByte('.')
		sb.WriteString(n.fieldName)
	case KIndex:
		a.render(sb, n.indexBase)
		sb.WriteByte('[')
		a.render(sb, n.indexAt)
		sb.WriteByte(']')
	case KRecord:
		sb.WriteByte('{')
		for i, f := range n.recFields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(f.Name)
			sb.WriteByte(':')
			a.render(sb, f.Value)
		}
		sb.WriteByte('}')
	case KArray:
		sb.WriteByte('[')
		for i, it := range n.arrItems {
			if i > 0 {
				sb.WriteByte(',')
			}
			a.render(sb, it)
		}
		sb.WriteByte(']')
	case KCoerce:
		a.render(sb, n.left)
		fmt.Fprintf(sb, " AS %s", n.coerceTo)
	case KGroup:
		sb.WriteByte('(')
		a.render(sb, n.left)
		sb.WriteByte(')')
	}
}
