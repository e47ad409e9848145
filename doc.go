// Package ez runs parsing expression grammars.
//
// A grammar is a tree of *Rule values built from matching primitives
// (Literal, CharRange, CodePointRange, Regex, Strings) and combinators
// (Sequence, Choice, Repeat, Test, TestNot, If, Action). The tree is matched
// against input with ordered choice and backtracking: whenever a rule fails,
// the position and the value stack are restored to what they were before the
// rule was tried.
//
// Semantic actions see a *Context and may push and pop values on the parse
// stack. Actions created with SkippableAction are not run while the engine is
// inside a Test or TestNot lookahead.
//
// Recursive grammars use Ref placeholders that are replaced by Resolve, or
// more conveniently by a Grammar:
//
//	g, err := ez.BuildGrammar(func(g *ez.Grammar) {
//		g.Start = "list"
//		g.Define("list", ez.Sequence(ez.Literal("("), ez.ZeroOrMore(g.Call("item")), ez.Literal(")")))
//		g.Define("item", ez.Choice(g.Call("list"), ez.CharRange('a', 'z')))
//	})
//
// A rule tree is immutable once resolved and can be shared by concurrent
// parses; every parse owns its own contexts and stack. The engine does not
// protect state captured by action or condition closures: if those closures
// touch anything other than the Context they are given, making that safe for
// concurrent use is up to the grammar author.
//
// There is no recursion limit and no timeout. A repetition of a rule that
// matches without consuming input loops forever.
package ez
