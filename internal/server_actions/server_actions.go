package server_actions

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/actionc/actionc/internal/js_ast"
	"github.com/actionc/actionc/internal/js_lexer"
	"github.com/actionc/actionc/internal/logger"
)

// This transform finds server actions in a parsed module and rewrites them so
// they can be invoked remotely. An action is an async function marked by a
// "use server" directive, either on its own body or at the top of the module
// it is exported from. Every action's binding is annotated with the metadata
// the runtime dispatcher reads ($$typeof, $$id, $$bound), and actions declared
// inside other functions are hoisted to module scope with the values they
// close over passed along explicitly.

type Config struct {
	// True when the output targets the server runtime. The rewrite is the
	// same either way; callers key caches and diagnostics on it.
	IsServer bool
}

// Action describes one remotely-invokable export produced by the transform.
type Action struct {
	// The export name the dispatcher imports, which is "default" for default
	// exports and may be a generated "$ACTION_" name for hoisted actions.
	Name string

	// The stable identifier from ActionID.
	ID string
}

type Result struct {
	HasAction bool
	Actions   []Action
}

// ActionID returns the identifier for the action exported from filePath under
// exportName: the hex-encoded sha1 digest of "filePath:exportName". Everything
// that routes an invocation back to its module derives the same id from the
// same two strings.
func ActionID(filePath string, exportName string) string {
	hash := sha1.New()
	hash.Write([]byte(filePath))
	hash.Write([]byte(":"))
	hash.Write([]byte(exportName))
	return hex.EncodeToString(hash.Sum(nil))
}

// Transform rewrites the module in place. Diagnostics go to log; the returned
// result says whether anything was rewritten and which exports are actions.
// The AST's symbol table grows as bindings are synthesized, so the caller must
// print with the same tree it passed in.
func Transform(log logger.Log, source logger.Source, tree *js_ast.AST, config Config) Result {
	p := &pass{
		log:      log,
		source:   source,
		tree:     tree,
		config:   config,
		inModule: true,
	}
	tree.Stmts = p.visitModuleItems(tree.Stmts)
	return Result{HasAction: p.hasAction, Actions: p.exportActions}
}

// A name is a reference that can be captured by value: a base identifier plus
// a chain of non-computed property accesses. Capturing member chains whole
// lets the hoisted body read exactly the value the closure would have read.
type name struct {
	ref   js_ast.Ref
	chain []nameLink
}

type nameLink struct {
	prop     string
	optional bool
}

func (n name) equals(other name) bool {
	if n.ref != other.ref || len(n.chain) != len(other.chain) {
		return false
	}
	for i, link := range n.chain {
		if link != other.chain[i] {
			return false
		}
	}
	return true
}

// nameFromExpr attempts to treat an expression as a capturable reference.
// Identifiers and dotted member chains qualify. Calls, computed members, and
// everything else do not, but their subexpressions may.
func nameFromExpr(expr js_ast.Expr) (name, bool) {
	switch e := expr.Data.(type) {
	case *js_ast.EIdentifier:
		return name{ref: e.Ref}, true

	case *js_ast.EDot:
		base, ok := nameFromExpr(e.Target)
		if !ok {
			return name{}, false
		}
		base.chain = append(base.chain, nameLink{
			prop:     e.Name,
			optional: e.OptionalChain == js_ast.OptionalChainStart,
		})
		return base, true
	}
	return name{}, false
}

// toExpr rebuilds the captured reference as an expression. The optional chain
// restarts at the first optional link so "a?.b.c" round-trips faithfully.
func (n name) toExpr(loc logger.Loc) js_ast.Expr {
	expr := js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: n.ref}}
	inChain := false
	for _, link := range n.chain {
		chain := js_ast.OptionalChainNone
		if link.optional {
			chain = js_ast.OptionalChainStart
			inChain = true
		} else if inChain {
			chain = js_ast.OptionalChainContinue
		}
		expr = js_ast.Expr{Loc: loc, Data: &js_ast.EDot{
			Target:        expr,
			Name:          link.prop,
			NameLoc:       loc,
			OptionalChain: chain,
		}}
	}
	return expr
}

// An exportedBinding records that a module binding is exported from an action
// file, so a later function declaration with that name becomes an action.
type exportedBinding struct {
	ref       js_ast.Ref
	isDefault bool
}

type pass struct {
	log    logger.Log
	source logger.Source
	tree   *js_ast.AST
	config Config

	// Context flags. The first group tracks positions in the module; the
	// second is saved and restored around each function boundary.
	inActionFile        bool
	inExportDecl        bool
	inDefaultExportDecl bool
	inPrepass           bool
	topLevel            bool
	inModule            bool
	inActionFn          bool
	shouldAddName       bool

	hasAction   bool
	actionIndex int

	// Identifiers declared by enclosing non-action functions. Only these are
	// capture candidates; module-scope bindings survive hoisting on their own.
	// Reset before each top-level statement.
	closureIdents []js_ast.Ref

	// References recorded inside the action currently being visited.
	actionNames []name

	// Names of async functions seen anywhere in an action file, used to
	// validate export clauses that name their function after the fact.
	asyncFnIdents []js_ast.Ref

	// Filled in by the pre-pass over an action file, consulted afterwards.
	exportedBindings []exportedBinding

	// Arrows recognized as actions by the pre-pass, remembered by position
	// since they have no name.
	actionArrowLocs []logger.Loc

	// Annotations splice in right after the statement that produced them.
	// Extra items wait until the enclosing top-level statement is done.
	annotations []js_ast.Stmt
	extraItems  []js_ast.Stmt

	exportActions []Action
}

func (p *pass) newSymbol(kind js_ast.SymbolKind, originalName string) js_ast.Ref {
	ref := js_ast.Ref{OuterIndex: p.source.Index, InnerIndex: uint32(len(p.tree.Symbols))}
	p.tree.Symbols = append(p.tree.Symbols, js_ast.Symbol{
		Kind:         kind,
		OriginalName: originalName,
		Link:         js_ast.InvalidRef,
	})
	return ref
}

// newModuleSymbol also registers the symbol in the module scope so passes
// running after the transform can still account for it.
func (p *pass) newModuleSymbol(kind js_ast.SymbolKind, originalName string) js_ast.Ref {
	ref := p.newSymbol(kind, originalName)
	p.tree.ModuleScope.Generated = append(p.tree.ModuleScope.Generated, ref)
	return ref
}

func (p *pass) recordUsage(ref js_ast.Ref) {
	p.tree.Symbols[ref.InnerIndex].UseCountEstimate++
}

// globalRef finds or creates the unbound symbol for a global like "Symbol".
func (p *pass) globalRef(name string) js_ast.Ref {
	if member, ok := p.tree.ModuleScope.Members[name]; ok {
		return member.Ref
	}
	ref := p.newSymbol(js_ast.SymbolUnbound, name)
	p.tree.ModuleScope.Members[name] = js_ast.ScopeMember{Ref: ref}
	return ref
}

// serverDirectiveIndex scans a directive prologue for "use server" and returns
// its statement index, or -1. Other directives such as "use strict" may come
// first.
func serverDirectiveIndex(stmts []js_ast.Stmt) int {
	for i := range stmts {
		directive, ok := stmts[i].Data.(*js_ast.SDirective)
		if !ok {
			break
		}
		if js_lexer.UTF16EqualsString(directive.Value, "use server") {
			return i
		}
	}
	return -1
}

func removeStmt(stmts []js_ast.Stmt, index int) []js_ast.Stmt {
	return append(stmts[:index], stmts[index+1:]...)
}

func (p *pass) visitModuleItems(stmts []js_ast.Stmt) []js_ast.Stmt {
	if index := serverDirectiveIndex(stmts); index >= 0 {
		p.inActionFile = true
		p.hasAction = true
		stmts = removeStmt(stmts, index)
	}

	oldAnnotations := p.annotations
	p.annotations = nil

	// Exports may name a function declared either side of them, so action
	// files get a pre-pass to build the export record before any rewriting.
	if p.inActionFile {
		p.inPrepass = true
		for i := range stmts {
			p.recordExportedBindings(stmts[i])
			p.visitStmt(&stmts[i])
		}
		p.inPrepass = false
	}

	visited := make([]js_ast.Stmt, 0, len(stmts))
	for i := range stmts {
		p.topLevel = true
		p.closureIdents = p.closureIdents[:0]
		if p.inActionFile {
			p.validateExport(&stmts[i])
		}
		p.visitStmt(&stmts[i])
		visited = append(visited, stmts[i])
		visited = append(visited, p.annotations...)
		p.annotations = nil
		visited = append(visited, p.extraItems...)
		p.extraItems = nil
	}
	p.annotations = oldAnnotations

	if p.hasAction {
		// The marker comment is how downstream tooling discovers action
		// modules without parsing them.
		names := make([]string, len(p.exportActions))
		for i, action := range p.exportActions {
			names[i] = action.Name
		}
		comment := js_ast.Stmt{Loc: logger.Loc{Start: 0}, Data: &js_ast.SComment{
			Text: "/* __next_internal_action_entry_do_not_use__ " + strings.Join(names, ",") + " */",
		}}
		visited = append([]js_ast.Stmt{comment}, visited...)
	}
	return visited
}

// recordExportedBindings populates the export record for one top-level
// statement. Only exports that name a binding matter here; exports that carry
// their own function are classified directly when they are visited.
func (p *pass) recordExportedBindings(stmt js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SLocal:
		if s.IsExport {
			for _, decl := range s.Decls {
				for _, ref := range collectIdentsInBinding(decl.Binding, nil) {
					p.exportedBindings = append(p.exportedBindings, exportedBinding{ref: ref})
				}
			}
		}

	case *js_ast.SExportClause:
		for _, item := range s.Items {
			p.exportedBindings = append(p.exportedBindings, exportedBinding{ref: item.Name.Ref})
		}

	case *js_ast.SExportDefault:
		if s.Value.Expr != nil {
			if id, ok := s.Value.Expr.Data.(*js_ast.EIdentifier); ok {
				p.exportedBindings = append(p.exportedBindings, exportedBinding{ref: id.Ref, isDefault: true})
			}
		}
	}
}

func (p *pass) findExportedBinding(ref js_ast.Ref) (exportedBinding, bool) {
	for _, record := range p.exportedBindings {
		if record.ref == ref {
			return record, true
		}
	}
	return exportedBinding{}, false
}

func (p *pass) isAsyncFnIdent(ref js_ast.Ref) bool {
	for _, other := range p.asyncFnIdents {
		if other == ref {
			return true
		}
	}
	return false
}

func (p *pass) isActionArrow(loc logger.Loc) bool {
	for _, other := range p.actionArrowLocs {
		if other == loc {
			return true
		}
	}
	return false
}

const exportShapeError = "Only async functions are allowed to be exported in a \"use server\" file."

// validateExport checks that a top-level statement in an action file only
// exports async functions. It runs before the statement's own visit, and it
// rewrites the one legal arrow form on the way through.
func (p *pass) validateExport(stmt *js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SFunction:
		// Allowed. Classification reports non-async exports separately.

	case *js_ast.SClass:
		if s.IsExport {
			p.log.AddError(&p.source, stmt.Loc, exportShapeError)
		}

	case *js_ast.SLocal:
		if s.IsExport {
			for _, decl := range s.Decls {
				if decl.Value == nil {
					continue
				}
				switch decl.Value.Data.(type) {
				case *js_ast.EFunction, *js_ast.EArrow:
				default:
					p.log.AddError(&p.source, stmt.Loc, exportShapeError)
					return
				}
			}
		}

	case *js_ast.SExportClause:
		for _, item := range s.Items {
			if !p.isAsyncFnIdent(item.Name.Ref) {
				p.log.AddError(&p.source, stmt.Loc, exportShapeError)
				return
			}
		}

	case *js_ast.SExportFrom, *js_ast.SExportStar:
		// Re-exports can't be checked without loading the other module.
		p.log.AddError(&p.source, stmt.Loc, exportShapeError)

	case *js_ast.SExportDefault:
		if s.Value.Stmt != nil {
			if _, ok := s.Value.Stmt.Data.(*js_ast.SFunction); !ok {
				p.log.AddError(&p.source, stmt.Loc, exportShapeError)
			}
			return
		}
		switch e := s.Value.Expr.Data.(type) {
		case *js_ast.EFunction:

		case *js_ast.EArrow:
			if p.isActionArrow(s.Value.Expr.Loc) {
				p.rewriteDefaultExportArrow(s)
			} else {
				p.log.AddError(&p.source, stmt.Loc, exportShapeError)
			}

		case *js_ast.EIdentifier:
			if !p.isAsyncFnIdent(e.Ref) {
				p.log.AddError(&p.source, stmt.Loc, exportShapeError)
			}

		default:
			p.log.AddError(&p.source, stmt.Loc, exportShapeError)
		}
	}
}

// rewriteDefaultExportArrow turns "export default <arrow>" into an assignment
// to a synthesized binding so the annotations have something to attach to:
//
//	export default $ACTION_default_0 = async () => { ... };
//	$ACTION_default_0.$$typeof = Symbol.for("react.server.reference");
//	$ACTION_default_0.$$id = "...";
//	$ACTION_default_0.$$bound = [];
//	var $ACTION_default_0;
func (p *pass) rewriteDefaultExportArrow(s *js_ast.SExportDefault) {
	arrow := *s.Value.Expr
	loc := arrow.Loc

	nameRef := p.newModuleSymbol(js_ast.SymbolHoisted, fmt.Sprintf("$ACTION_default_%d", p.actionIndex))
	p.actionIndex++

	// A top-level arrow has no enclosing function scope to capture from.
	p.addActionHeader(loc, nameRef, true, true)
	p.annotations = append(p.annotations, p.annotate(loc, nameRef, "$$bound",
		js_ast.Expr{Loc: loc, Data: &js_ast.EArray{IsSingleLine: true}}))

	p.extraItems = append(p.extraItems, js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{
		Kind:  js_ast.LocalVar,
		Decls: []js_ast.Decl{{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Ref: nameRef}}}},
	}})

	p.recordUsage(nameRef)
	assign := js_ast.Assign(js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: nameRef}}, arrow)
	s.Value.Expr = &assign
}

func (p *pass) visitStmts(stmts []js_ast.Stmt) []js_ast.Stmt {
	oldTopLevel := p.topLevel
	oldAnnotations := p.annotations
	p.annotations = nil

	visited := make([]js_ast.Stmt, 0, len(stmts))
	for i := range stmts {
		p.topLevel = false
		p.visitStmt(&stmts[i])
		visited = append(visited, stmts[i])
		visited = append(visited, p.annotations...)
		p.annotations = nil
	}

	p.annotations = oldAnnotations
	p.topLevel = oldTopLevel
	return visited
}

func (p *pass) visitStmt(stmt *js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SComment, *js_ast.SDirective, *js_ast.SEmpty, *js_ast.SDebugger,
		*js_ast.SBreak, *js_ast.SContinue, *js_ast.SImport,
		*js_ast.SExportClause, *js_ast.SExportFrom, *js_ast.SExportStar:
		// Nothing to rewrite.

	case *js_ast.SFunction:
		old := p.inExportDecl
		if s.IsExport {
			p.inExportDecl = true
		}
		p.visitFnNode(&s.Fn, stmt.Loc)
		p.inExportDecl = old

	case *js_ast.SClass:
		old := p.inExportDecl
		if s.IsExport {
			p.inExportDecl = true
		}
		p.visitClass(&s.Class)
		p.inExportDecl = old

	case *js_ast.SExportDefault:
		oldExport := p.inExportDecl
		oldDefault := p.inDefaultExportDecl
		p.inExportDecl = true
		p.inDefaultExportDecl = true
		if s.Value.Expr != nil {
			p.visitExpr(s.Value.Expr)
		} else {
			p.visitStmt(s.Value.Stmt)
		}
		p.inExportDecl = oldExport
		p.inDefaultExportDecl = oldDefault

	case *js_ast.SLocal:
		old := p.inExportDecl
		if s.IsExport {
			p.inExportDecl = true
		}
		p.visitLocal(s)
		p.inExportDecl = old

	case *js_ast.SExpr:
		p.visitExpr(&s.Value)

	case *js_ast.SReturn:
		if s.Value != nil {
			p.visitExpr(s.Value)
		}

	case *js_ast.SThrow:
		p.visitExpr(&s.Value)

	case *js_ast.SBlock:
		s.Stmts = p.visitStmts(s.Stmts)

	case *js_ast.SIf:
		p.visitExpr(&s.Test)
		p.visitStmt(&s.Yes)
		if s.No != nil {
			p.visitStmt(s.No)
		}

	case *js_ast.SFor:
		if s.Init != nil {
			p.visitForInit(s.Init)
		}
		if s.Test != nil {
			p.visitExpr(s.Test)
		}
		if s.Update != nil {
			p.visitExpr(s.Update)
		}
		p.visitStmt(&s.Body)

	case *js_ast.SForIn:
		p.visitForInit(&s.Init)
		p.visitExpr(&s.Value)
		p.visitStmt(&s.Body)

	case *js_ast.SForOf:
		p.visitForInit(&s.Init)
		p.visitExpr(&s.Value)
		p.visitStmt(&s.Body)

	case *js_ast.SDoWhile:
		p.visitStmt(&s.Body)
		p.visitExpr(&s.Test)

	case *js_ast.SWhile:
		p.visitExpr(&s.Test)
		p.visitStmt(&s.Body)

	case *js_ast.SLabel:
		p.visitStmt(&s.Stmt)

	case *js_ast.STry:
		s.Body = p.visitStmts(s.Body)
		if s.Catch != nil {
			if s.Catch.Binding != nil {
				p.visitBinding(*s.Catch.Binding)
			}
			s.Catch.Body = p.visitStmts(s.Catch.Body)
		}
		if s.Finally != nil {
			s.Finally.Stmts = p.visitStmts(s.Finally.Stmts)
		}

	case *js_ast.SSwitch:
		p.visitExpr(&s.Test)
		for i := range s.Cases {
			c := &s.Cases[i]
			if c.Value != nil {
				p.visitExpr(c.Value)
			}
			c.Body = p.visitStmts(c.Body)
		}
	}

	// A declaration in statement position inside a plain enclosing function
	// is a capture candidate for actions hoisted from below it.
	if !p.inModule && !p.inActionFn && !p.inActionFile {
		if s, ok := stmt.Data.(*js_ast.SLocal); ok {
			for _, decl := range s.Decls {
				p.closureIdents = collectIdentsInBinding(decl.Binding, p.closureIdents)
			}
		}
	}
}

// visitForInit visits a for-loop initializer. Loop bindings sit in declaration
// position rather than statement position, so they are not closure candidates.
func (p *pass) visitForInit(stmt *js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SLocal:
		p.visitLocal(s)
	case *js_ast.SExpr:
		p.visitExpr(&s.Value)
	}
}

func (p *pass) visitLocal(s *js_ast.SLocal) {
	for i := range s.Decls {
		decl := &s.Decls[i]

		if p.inActionFile {
			if id, ok := decl.Binding.Data.(*js_ast.BIdentifier); ok && decl.Value != nil {
				if fn, ok := decl.Value.Data.(*js_ast.EFunction); ok && fn.Fn.IsAsync {
					if p.inPrepass {
						// The variable may be exported further down the
						// module, which would make this function an action.
						p.asyncFnIdents = append(p.asyncFnIdents, id.Ref)
					} else if record, ok := p.findExportedBinding(id.Ref); ok {
						p.annotateExportedFnValue(decl, id.Ref, &fn.Fn, record.isDefault)
						continue
					}
				}
			}
		}

		p.visitBinding(decl.Binding)
		if decl.Value != nil {
			p.visitExpr(decl.Value)
		}
	}
}

// annotateExportedFnValue handles an exported variable whose initializer is an
// async function expression, whether exported inline or by a later clause or
// default export. The variable is the binding the module actually exports, so
// the annotations attach to it rather than to the function's own name.
func (p *pass) annotateExportedFnValue(decl *js_ast.Decl, bindingRef js_ast.Ref, fn *js_ast.Fn, isDefault bool) {
	if fn.Name == nil {
		// Name the anonymous function for stack traces.
		ref := p.newSymbol(js_ast.SymbolOther, fmt.Sprintf("$ACTION_fn_%d", p.actionIndex))
		p.actionIndex++
		fn.Name = &js_ast.LocRef{Loc: decl.Value.Loc, Ref: ref}
	}

	p.visitFnChildren(fn, true)

	// Export declarations only appear at the top level, so the capture list
	// is always empty here.
	loc := decl.Binding.Loc
	p.addActionHeader(loc, bindingRef, true, isDefault)
	p.annotations = append(p.annotations, p.annotate(loc, bindingRef, "$$bound",
		js_ast.Expr{Loc: loc, Data: &js_ast.EArray{IsSingleLine: true}}))
}

func (p *pass) visitBinding(binding js_ast.Binding) {
	switch b := binding.Data.(type) {
	case *js_ast.BArray:
		for i := range b.Items {
			item := &b.Items[i]
			p.visitBinding(item.Binding)
			if item.DefaultValue != nil {
				p.visitExpr(item.DefaultValue)
			}
		}

	case *js_ast.BObject:
		for i := range b.Properties {
			property := &b.Properties[i]
			if property.IsComputed {
				p.visitExpr(&property.Key)
			}
			p.visitBinding(property.Value)
			if property.DefaultValue != nil {
				p.visitExpr(property.DefaultValue)
			}
		}
	}
}

func (p *pass) recordActionName(n name) {
	for _, other := range p.actionNames {
		if n.equals(other) {
			return
		}
	}
	p.actionNames = append(p.actionNames, n)
}

// captureList filters the references recorded in an action down to the ones
// that fall out of scope when its body is hoisted to module scope.
func (p *pass) captureList() []name {
	var captures []name
	for _, n := range p.actionNames {
		for _, ref := range p.closureIdents {
			if n.ref == ref {
				captures = append(captures, n)
				break
			}
		}
	}
	return captures
}

func (p *pass) visitExpr(expr *js_ast.Expr) {
	if p.inActionFn && p.shouldAddName {
		if n, ok := nameFromExpr(*expr); ok {
			// Record the outermost matching expression only. Recording its
			// pieces as well would bind the same value more than once.
			p.shouldAddName = false
			if !p.inPrepass {
				p.recordActionName(n)
			}
			p.visitExprChildren(expr)
			p.shouldAddName = true
			return
		}
	}
	p.visitExprChildren(expr)
}

func (p *pass) visitExprChildren(expr *js_ast.Expr) {
	switch e := expr.Data.(type) {
	case *js_ast.EArray:
		for i := range e.Items {
			p.visitExpr(&e.Items[i])
		}

	case *js_ast.EUnary:
		p.visitExpr(&e.Value)

	case *js_ast.EBinary:
		p.visitExpr(&e.Left)
		p.visitExpr(&e.Right)

	case *js_ast.ENew:
		p.visitExpr(&e.Target)
		for i := range e.Args {
			p.visitExpr(&e.Args[i])
		}

	case *js_ast.ECall:
		p.visitExpr(&e.Target)
		for i := range e.Args {
			p.visitExpr(&e.Args[i])
		}

	case *js_ast.EDot:
		p.visitExpr(&e.Target)

	case *js_ast.EIndex:
		p.visitExpr(&e.Target)
		p.visitExpr(&e.Index)

	case *js_ast.EArrow:
		p.visitArrow(expr.Loc, e)

	case *js_ast.EFunction:
		p.visitFnNode(&e.Fn, expr.Loc)

	case *js_ast.EClass:
		p.visitClass(&e.Class)

	case *js_ast.EObject:
		for i := range e.Properties {
			p.visitProperty(&e.Properties[i])
		}

	case *js_ast.ESpread:
		p.visitExpr(&e.Value)

	case *js_ast.ETemplate:
		if e.Tag != nil {
			p.visitExpr(e.Tag)
		}
		for i := range e.Parts {
			p.visitExpr(&e.Parts[i].Value)
		}

	case *js_ast.EImport:
		p.visitExpr(&e.Expr)

	case *js_ast.EAwait:
		p.visitExpr(&e.Value)

	case *js_ast.EYield:
		if e.Value != nil {
			p.visitExpr(e.Value)
		}

	case *js_ast.EIf:
		p.visitExpr(&e.Test)
		p.visitExpr(&e.Yes)
		p.visitExpr(&e.No)
	}
}

func (p *pass) visitProperty(property *js_ast.Property) {
	if property.IsComputed {
		p.visitExpr(&property.Key)
	}
	if property.Value != nil {
		switch {
		case property.WasShorthand:
			// A shorthand value is property punning, not expression position,
			// so it is never recorded as a capture on its own.

		case property.IsMethod || property.Kind == js_ast.PropertyGet || property.Kind == js_ast.PropertySet:
			// Methods share the surrounding context. They are never actions.
			if fn, ok := property.Value.Data.(*js_ast.EFunction); ok {
				p.visitFnInnards(&fn.Fn)
			}

		default:
			p.visitExpr(property.Value)
		}
	}
	if property.Initializer != nil {
		p.visitExpr(property.Initializer)
	}
}

func (p *pass) visitClass(class *js_ast.Class) {
	if class.Extends != nil {
		p.visitExpr(class.Extends)
	}
	for i := range class.Properties {
		p.visitProperty(&class.Properties[i])
	}
}

func (p *pass) visitArrow(loc logger.Loc, arrow *js_ast.EArrow) {
	if p.inPrepass {
		// Arrows have no name to put in a lookup table, so qualifying ones
		// are remembered by position for the default-export rewrite.
		isAction, _, _ := p.actionInfo(nil, &arrow.Body)
		if isAction && arrow.IsAsync {
			p.actionArrowLocs = append(p.actionArrowLocs, loc)
		}
		return
	}

	// Arrow parameters and bodies share the surrounding context. Only real
	// function boundaries reset the flags, so arrow parameters never become
	// closure candidates.
	for i := range arrow.Args {
		arg := &arrow.Args[i]
		p.visitBinding(arg.Binding)
		if arg.Default != nil {
			p.visitExpr(arg.Default)
		}
	}
	arrow.Body.Stmts = p.visitStmts(arrow.Body.Stmts)
}

// visitFnNode handles function declarations and function expressions:
// classify, visit children with a fresh function context, then rewrite the
// ones that turned out to be actions.
func (p *pass) visitFnNode(fn *js_ast.Fn, loc logger.Loc) {
	if p.inPrepass {
		if fn.IsAsync && fn.Name != nil {
			p.asyncFnIdents = append(p.asyncFnIdents, fn.Name.Ref)
		}
		return
	}

	if fn.Name == nil {
		if !(p.inActionFile && p.inExportDecl && fn.IsAsync) {
			// Anonymous function expressions are as transparent as arrows.
			p.visitFnInnards(fn)
			return
		}
		// A default-exported anonymous async function still needs a binding
		// for its annotations.
		ref := p.newModuleSymbol(js_ast.SymbolOther, fmt.Sprintf("$ACTION_default_%d", p.actionIndex))
		p.actionIndex++
		fn.Name = &js_ast.LocRef{Loc: loc, Ref: ref}
	}

	isAction, isExported, isDefault := p.actionInfo(fn.Name, &fn.Body)
	captures := p.visitFnChildren(fn, isAction)

	if !isAction {
		return
	}
	if !fn.IsAsync {
		r := js_lexer.RangeOfIdentifier(p.source, fn.Name.Loc)
		p.log.AddRangeError(&p.source, r, "Server actions must be async functions")
		return
	}
	p.annotateAction(fn, captures, isExported, isDefault)
}

// actionInfo decides whether a function-like node is an action. A qualifying
// body directive is consumed here. Exported-binding hits inherit the
// default-export flag recorded for the binding.
func (p *pass) actionInfo(fnName *js_ast.LocRef, body *js_ast.FnBody) (isAction bool, isExported bool, isDefault bool) {
	isExported = p.inExportDecl
	isDefault = p.inDefaultExportDecl

	if p.inActionFile && p.inExportDecl {
		// Everything exported from an action file is an action.
		isAction = true
		return
	}

	if index := serverDirectiveIndex(body.Stmts); index >= 0 {
		isAction = true
		body.Stmts = removeStmt(body.Stmts, index)
	}

	if fnName != nil {
		if record, ok := p.findExportedBinding(fnName.Ref); ok {
			isAction = true
			isExported = true
			isDefault = record.isDefault
		}
	}
	return
}

// visitFnChildren visits a function's parameters and body with the context a
// function boundary implies, and returns the captures recorded while inside
// when the function is an action.
func (p *pass) visitFnChildren(fn *js_ast.Fn, isAction bool) []name {
	oldInActionFn := p.inActionFn
	oldInModule := p.inModule
	oldShouldAddName := p.shouldAddName
	oldInExportDecl := p.inExportDecl
	oldInDefaultExportDecl := p.inDefaultExportDecl
	oldActionNames := p.actionNames
	p.inActionFn = isAction
	p.inModule = false
	p.shouldAddName = true
	p.inExportDecl = false
	p.inDefaultExportDecl = false
	if isAction {
		p.actionNames = nil
	}

	p.visitFnInnards(fn)

	var captures []name
	if isAction {
		captures = p.captureList()
	}

	p.inActionFn = oldInActionFn
	p.inModule = oldInModule
	p.shouldAddName = oldShouldAddName
	p.inExportDecl = oldInExportDecl
	p.inDefaultExportDecl = oldInDefaultExportDecl
	p.actionNames = oldActionNames
	if isAction && oldInActionFn {
		// The $$bound annotation left in this body references the nested
		// action's captures, so the enclosing action must capture them too.
		for _, capture := range captures {
			p.recordActionName(capture)
		}
	}
	return captures
}

// visitFnInnards visits parameters and body with whatever flags are currently
// in effect. Methods come through here directly since they never form a
// capture boundary of their own.
func (p *pass) visitFnInnards(fn *js_ast.Fn) {
	for i := range fn.Args {
		arg := &fn.Args[i]
		p.visitBinding(arg.Binding)
		if arg.Default != nil {
			p.visitExpr(arg.Default)
		}
		if !p.inPrepass && !p.inActionFn && !p.inActionFile {
			if fn.HasRestArg && i == len(fn.Args)-1 {
				// A rest parameter only contributes a plain identifier.
				if id, ok := arg.Binding.Data.(*js_ast.BIdentifier); ok {
					p.closureIdents = append(p.closureIdents, id.Ref)
				}
			} else {
				p.closureIdents = collectIdentsInBinding(arg.Binding, p.closureIdents)
			}
		}
	}
	fn.Body.Stmts = p.visitStmts(fn.Body.Stmts)
}

// addActionHeader emits the $$typeof and $$id annotations for the action
// bound to ident and records its export entry. The returned name is the one a
// hoisted or aliased form of the action should be declared under.
func (p *pass) addActionHeader(loc logger.Loc, ident js_ast.Ref, isExported bool, isDefault bool) (actionName string, needRename bool) {
	needRename = p.inActionFile && (p.inExportDecl || isExported)
	actionName = p.tree.Symbols[ident.InnerIndex].OriginalName
	if !needRename {
		actionName = "$ACTION_" + actionName
	}
	exportName := actionName
	if isDefault {
		exportName = "default"
	}

	p.hasAction = true
	id := ActionID(p.source.PrettyPath, exportName)
	p.exportActions = append(p.exportActions, Action{Name: exportName, ID: id})

	// ident.$$typeof = Symbol.for("react.server.reference");
	symbolRef := p.globalRef("Symbol")
	p.recordUsage(symbolRef)
	tag := js_ast.Expr{Loc: loc, Data: &js_ast.ECall{
		Target: js_ast.Expr{Loc: loc, Data: &js_ast.EDot{
			Target:  js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: symbolRef}},
			Name:    "for",
			NameLoc: loc,
		}},
		Args: []js_ast.Expr{{Loc: loc, Data: &js_ast.EString{Value: js_lexer.StringToUTF16("react.server.reference")}}},
	}}
	p.annotations = append(p.annotations, p.annotate(loc, ident, "$$typeof", tag))

	// ident.$$id = "<digest>";
	p.annotations = append(p.annotations, p.annotate(loc, ident, "$$id",
		js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: js_lexer.StringToUTF16(id)}}))

	return actionName, needRename
}

// annotate builds "ref.field = value;".
func (p *pass) annotate(loc logger.Loc, ref js_ast.Ref, field string, value js_ast.Expr) js_ast.Stmt {
	p.recordUsage(ref)
	return js_ast.AssignStmt(
		js_ast.Expr{Loc: loc, Data: &js_ast.EDot{
			Target:  js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: ref}},
			Name:    field,
			NameLoc: loc,
		}},
		value,
	)
}

// annotateAction rewrites a classified action in place. Top-level actions
// keep their body and gain an empty capture list, plus an exported alias when
// their own name isn't already exported. Nested actions are hoisted to module
// scope with their captures passed through the closure array, leaving behind
// a forwarder so existing callers keep working.
func (p *pass) annotateAction(fn *js_ast.Fn, captures []name, isExported bool, isDefault bool) {
	nameLoc := fn.Name.Loc
	nameRef := fn.Name.Ref
	actionName, needRename := p.addActionHeader(nameLoc, nameRef, isExported, isDefault)

	if p.topLevel {
		// A top-level declaration stays in scope for the hoisted form, so
		// nothing needs to be captured.
		p.annotations = append(p.annotations, p.annotate(nameLoc, nameRef, "$$bound",
			js_ast.Expr{Loc: nameLoc, Data: &js_ast.EArray{IsSingleLine: true}}))

		if !needRename {
			// export const $ACTION_name = name;
			actionRef := p.newModuleSymbol(js_ast.SymbolConst, actionName)
			p.recordUsage(nameRef)
			p.extraItems = append(p.extraItems, js_ast.Stmt{Loc: nameLoc, Data: &js_ast.SLocal{
				Kind:     js_ast.LocalConst,
				IsExport: true,
				Decls: []js_ast.Decl{{
					Binding: js_ast.Binding{Loc: nameLoc, Data: &js_ast.BIdentifier{Ref: actionRef}},
					Value:   &js_ast.Expr{Loc: nameLoc, Data: &js_ast.EIdentifier{Ref: nameRef}},
				}},
			}})
		}
		return
	}

	actionRef := p.newModuleSymbol(js_ast.SymbolHoistedFunction, actionName)
	closureRef := p.newSymbol(js_ast.SymbolHoisted, "closure")

	replacer := closureReplacer{p: p, closureRef: closureRef, captures: captures}
	replacer.replaceStmts(fn.Body.Stmts)

	// name.$$bound = [captured values];
	items := make([]js_ast.Expr, len(captures))
	for i, capture := range captures {
		p.recordUsage(capture.ref)
		items[i] = capture.toExpr(nameLoc)
	}
	p.annotations = append(p.annotations, p.annotate(nameLoc, nameRef, "$$bound",
		js_ast.Expr{Loc: nameLoc, Data: &js_ast.EArray{Items: items, IsSingleLine: true}}))

	// export function $ACTION_name(closure) { <rewritten body> }
	hoisted := js_ast.Fn{
		Name:        &js_ast.LocRef{Loc: nameLoc, Ref: actionRef},
		Args:        []js_ast.Arg{{Binding: js_ast.Binding{Loc: nameLoc, Data: &js_ast.BIdentifier{Ref: closureRef}}}},
		Body:        fn.Body,
		IsAsync:     fn.IsAsync,
		IsGenerator: fn.IsGenerator,
	}
	p.extraItems = append(p.extraItems, js_ast.Stmt{Loc: nameLoc, Data: &js_ast.SFunction{Fn: hoisted, IsExport: true}})

	// The original becomes "return $ACTION_name(name.$$bound);" so callers
	// that close over it are unaffected by the hoist.
	p.recordUsage(actionRef)
	p.recordUsage(nameRef)
	forward := js_ast.Expr{Loc: nameLoc, Data: &js_ast.ECall{
		Target: js_ast.Expr{Loc: nameLoc, Data: &js_ast.EIdentifier{Ref: actionRef}},
		Args: []js_ast.Expr{{Loc: nameLoc, Data: &js_ast.EDot{
			Target:  js_ast.Expr{Loc: nameLoc, Data: &js_ast.EIdentifier{Ref: nameRef}},
			Name:    "$$bound",
			NameLoc: nameLoc,
		}}},
	}}
	fn.Body = js_ast.FnBody{Loc: fn.Body.Loc, Stmts: []js_ast.Stmt{
		{Loc: nameLoc, Data: &js_ast.SReturn{Value: &forward}},
	}}
}

func collectIdentsInBinding(binding js_ast.Binding, ids []js_ast.Ref) []js_ast.Ref {
	switch b := binding.Data.(type) {
	case *js_ast.BIdentifier:
		ids = append(ids, b.Ref)

	case *js_ast.BArray:
		for i, item := range b.Items {
			if b.HasSpread && i == len(b.Items)-1 {
				// A rest element only contributes a plain identifier.
				if id, ok := item.Binding.Data.(*js_ast.BIdentifier); ok {
					ids = append(ids, id.Ref)
				}
				continue
			}
			ids = collectIdentsInBinding(item.Binding, ids)
		}

	case *js_ast.BObject:
		for _, property := range b.Properties {
			if property.IsSpread {
				if id, ok := property.Value.Data.(*js_ast.BIdentifier); ok {
					ids = append(ids, id.Ref)
				}
				continue
			}
			ids = collectIdentsInBinding(property.Value, ids)
		}
	}
	return ids
}

// closureReplacer rewrites references to captured values into reads of the
// closure array parameter, using the same indices as the $$bound array.
type closureReplacer struct {
	p          *pass
	closureRef js_ast.Ref
	captures   []name
}

func (r *closureReplacer) indexOf(n name) int {
	for i, capture := range r.captures {
		if capture.equals(n) {
			return i
		}
	}
	return -1
}

func (r *closureReplacer) closureAccess(loc logger.Loc, index int) js_ast.Expr {
	r.p.recordUsage(r.closureRef)
	return js_ast.Expr{Loc: loc, Data: &js_ast.EIndex{
		Target: js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Ref: r.closureRef}},
		Index:  js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: float64(index)}},
	}}
}

func (r *closureReplacer) replaceStmts(stmts []js_ast.Stmt) {
	for i := range stmts {
		r.replaceStmt(&stmts[i])
	}
}

func (r *closureReplacer) replaceStmt(stmt *js_ast.Stmt) {
	switch s := stmt.Data.(type) {
	case *js_ast.SExpr:
		r.replaceExpr(&s.Value)

	case *js_ast.SReturn:
		if s.Value != nil {
			r.replaceExpr(s.Value)
		}

	case *js_ast.SThrow:
		r.replaceExpr(&s.Value)

	case *js_ast.SLocal:
		for i := range s.Decls {
			decl := &s.Decls[i]
			r.replaceBinding(decl.Binding)
			if decl.Value != nil {
				r.replaceExpr(decl.Value)
			}
		}

	case *js_ast.SFunction:
		r.replaceFn(&s.Fn)

	case *js_ast.SClass:
		r.replaceClass(&s.Class)

	case *js_ast.SBlock:
		r.replaceStmts(s.Stmts)

	case *js_ast.SIf:
		r.replaceExpr(&s.Test)
		r.replaceStmt(&s.Yes)
		if s.No != nil {
			r.replaceStmt(s.No)
		}

	case *js_ast.SFor:
		if s.Init != nil {
			r.replaceStmt(s.Init)
		}
		if s.Test != nil {
			r.replaceExpr(s.Test)
		}
		if s.Update != nil {
			r.replaceExpr(s.Update)
		}
		r.replaceStmt(&s.Body)

	case *js_ast.SForIn:
		r.replaceStmt(&s.Init)
		r.replaceExpr(&s.Value)
		r.replaceStmt(&s.Body)

	case *js_ast.SForOf:
		r.replaceStmt(&s.Init)
		r.replaceExpr(&s.Value)
		r.replaceStmt(&s.Body)

	case *js_ast.SDoWhile:
		r.replaceStmt(&s.Body)
		r.replaceExpr(&s.Test)

	case *js_ast.SWhile:
		r.replaceExpr(&s.Test)
		r.replaceStmt(&s.Body)

	case *js_ast.SLabel:
		r.replaceStmt(&s.Stmt)

	case *js_ast.STry:
		r.replaceStmts(s.Body)
		if s.Catch != nil {
			if s.Catch.Binding != nil {
				r.replaceBinding(*s.Catch.Binding)
			}
			r.replaceStmts(s.Catch.Body)
		}
		if s.Finally != nil {
			r.replaceStmts(s.Finally.Stmts)
		}

	case *js_ast.SSwitch:
		r.replaceExpr(&s.Test)
		for i := range s.Cases {
			c := &s.Cases[i]
			if c.Value != nil {
				r.replaceExpr(c.Value)
			}
			r.replaceStmts(c.Body)
		}
	}
}

func (r *closureReplacer) replaceBinding(binding js_ast.Binding) {
	switch b := binding.Data.(type) {
	case *js_ast.BArray:
		for i := range b.Items {
			item := &b.Items[i]
			r.replaceBinding(item.Binding)
			if item.DefaultValue != nil {
				r.replaceExpr(item.DefaultValue)
			}
		}

	case *js_ast.BObject:
		for i := range b.Properties {
			property := &b.Properties[i]
			if property.IsComputed {
				r.replaceExpr(&property.Key)
			}
			r.replaceBinding(property.Value)
			if property.DefaultValue != nil {
				r.replaceExpr(property.DefaultValue)
			}
		}
	}
}

func (r *closureReplacer) replaceFn(fn *js_ast.Fn) {
	for i := range fn.Args {
		arg := &fn.Args[i]
		r.replaceBinding(arg.Binding)
		if arg.Default != nil {
			r.replaceExpr(arg.Default)
		}
	}
	r.replaceStmts(fn.Body.Stmts)
}

func (r *closureReplacer) replaceClass(class *js_ast.Class) {
	if class.Extends != nil {
		r.replaceExpr(class.Extends)
	}
	for i := range class.Properties {
		r.replaceProperty(&class.Properties[i])
	}
}

func (r *closureReplacer) replaceProperty(property *js_ast.Property) {
	if property.IsComputed {
		r.replaceExpr(&property.Key)
	}
	if property.Value != nil {
		if property.WasShorthand {
			// A punned property can only match a bare identifier capture,
			// and rewriting it forces the longhand form.
			if id, ok := property.Value.Data.(*js_ast.EIdentifier); ok {
				if index := r.indexOf(name{ref: id.Ref}); index >= 0 {
					value := r.closureAccess(property.Value.Loc, index)
					property.Value = &value
					property.WasShorthand = false
				}
			}
		} else {
			r.replaceExpr(property.Value)
		}
	}
	if property.Initializer != nil {
		r.replaceExpr(property.Initializer)
	}
}

func (r *closureReplacer) replaceExpr(expr *js_ast.Expr) {
	// Children first, so that the outermost expression still matching a
	// capture is the one that gets rewritten.
	switch e := expr.Data.(type) {
	case *js_ast.EArray:
		for i := range e.Items {
			r.replaceExpr(&e.Items[i])
		}

	case *js_ast.EUnary:
		r.replaceExpr(&e.Value)

	case *js_ast.EBinary:
		r.replaceExpr(&e.Left)
		r.replaceExpr(&e.Right)

	case *js_ast.ENew:
		r.replaceExpr(&e.Target)
		for i := range e.Args {
			r.replaceExpr(&e.Args[i])
		}

	case *js_ast.ECall:
		r.replaceExpr(&e.Target)
		for i := range e.Args {
			r.replaceExpr(&e.Args[i])
		}

	case *js_ast.EDot:
		r.replaceExpr(&e.Target)

	case *js_ast.EIndex:
		r.replaceExpr(&e.Target)
		r.replaceExpr(&e.Index)

	case *js_ast.EArrow:
		for i := range e.Args {
			arg := &e.Args[i]
			r.replaceBinding(arg.Binding)
			if arg.Default != nil {
				r.replaceExpr(arg.Default)
			}
		}
		r.replaceStmts(e.Body.Stmts)

	case *js_ast.EFunction:
		r.replaceFn(&e.Fn)

	case *js_ast.EClass:
		r.replaceClass(&e.Class)

	case *js_ast.EObject:
		for i := range e.Properties {
			r.replaceProperty(&e.Properties[i])
		}

	case *js_ast.ESpread:
		r.replaceExpr(&e.Value)

	case *js_ast.ETemplate:
		if e.Tag != nil {
			r.replaceExpr(e.Tag)
		}
		for i := range e.Parts {
			r.replaceExpr(&e.Parts[i].Value)
		}

	case *js_ast.EImport:
		r.replaceExpr(&e.Expr)

	case *js_ast.EAwait:
		r.replaceExpr(&e.Value)

	case *js_ast.EYield:
		if e.Value != nil {
			r.replaceExpr(e.Value)
		}

	case *js_ast.EIf:
		r.replaceExpr(&e.Test)
		r.replaceExpr(&e.Yes)
		r.replaceExpr(&e.No)
	}

	if n, ok := nameFromExpr(*expr); ok {
		if index := r.indexOf(n); index >= 0 {
			expr.Data = r.closureAccess(expr.Loc, index).Data
		}
	}
}
