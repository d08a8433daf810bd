// Package help holds the built-in Lox language reference shown by `lox help`.
package help

import (
	"fmt"
	"sort"
	"strings"
)

// Version is the CLI version string.
const Version = "v0.3.0"

// QUICKREF is the one-screen overview printed by `lox help` with no topic.
var QUICKREF = `Lox ` + Version + ` quick reference

  lox [script]            run a script, or start the REPL with no arguments
  lox run <file>...       run one or more scripts
  lox check <file>        report lexical and syntax errors without running
  lox fmt <file>          print the canonical formatting of a script
  lox tokens <file>       list the tokens of a script
  lox ast <file>          print the syntax tree in prefix form
  lox repl                start the interactive prompt
  lox trace <file.jsonl>  summarize a trace written with --trace
  lox help [topic]        show this page or a topic

Statements:   print expr;   var name = expr;   expr;   { ... }
Expressions:  literals, names, assignment (=), ! -, * /, + -, < <= > >=, == !=
Values:       nil, true, false, numbers, strings

Topics: ` + strings.Join(TopicList, ", ") + `
Run 'lox help <topic>' for details. Topic names may be abbreviated.
`

// TopicList is the display order of the help topics.
var TopicList = []string{"syntax", "types", "scoping", "diagnostics", "examples"}

// Topics maps a topic name to its text.
var Topics = map[string]string{
	"syntax": `SYNTAX

program     -> declaration* EOF
declaration -> "var" IDENTIFIER ( "=" expression )? ";" | statement
statement   -> "print" expression ";" | "{" declaration* "}" | expression ";"
expression  -> assignment
assignment  -> IDENTIFIER "=" assignment | equality
equality    -> comparison ( ( "!=" | "==" ) comparison )*
comparison  -> term ( ( ">" | ">=" | "<" | "<=" ) term )*
term        -> factor ( ( "-" | "+" ) factor )*
factor      -> unary ( ( "/" | "*" ) unary )*
unary       -> ( "!" | "-" ) unary | primary
primary     -> NUMBER | STRING | "true" | "false" | "nil"
             | "(" expression ")" | IDENTIFIER

Comments run from // to the end of the line, or between /* and */.
Strings are double quoted and may span lines; there are no escapes.
Numbers are decimal: 12, 3.5. A leading or trailing dot is not part of a number.
Reserved words: and class else false for fun if nil or print return super
this true var while.
`,

	"types": `TYPES

nil       the absent value; prints as nil
boolean   true and false
number    64-bit floating point; 3.0 prints as 3, 1/0 prints as inf
string    text; + joins two strings

Only nil and false are falsey. 0 and "" are truthy.
== never fails: values of different types are unequal, nil equals nil.
Arithmetic and comparison need numbers; + takes two numbers or two strings.
Dividing by zero is not an error: it gives inf, -inf or NaN.
`,

	"scoping": `SCOPING

var declares a name in the current scope. Declaring it again replaces it.
A block { ... } opens a new scope; names declared inside shadow outer ones
and disappear when the block ends.
Assignment changes the innermost existing binding and is an error if the
name was never declared. Reading an undeclared name is an error.
Assignment is an expression: print a = 2; prints 2.

In the REPL, globals persist between lines. Type :env to list them
and :log debug to watch parse and run timings.
`,

	"diagnostics": `DIAGNOSTICS

E_LEX      scanning failed            [line N] Error: Unexpected character.
E_PARSE    parsing failed             [line N] Error at ';': Expect expression.
E_RUNTIME  execution failed           Operands must be two numbers or two strings.
                                      [line N]
E_IO       a file could not be read or output could not be written
E_CONFIG   the config file is invalid
E_USAGE    the command line is malformed

Scanning and parsing report every error they find, and the program does not
run. A runtime error stops the program at the failing statement.
Use --json for machine-readable diagnostics.

Exit codes: 0 ok, 64 usage, 65 lexical or syntax error, 70 runtime error,
74 I/O error.
`,

	"examples": `EXAMPLES

var greeting = "hello";
print greeting + " world";     // hello world

var a = 1;
{
  var a = a + 1;
  print a;                     // 2
}
print a;                       // 1

print 2 * (3 + 4) / 7;         // 2
print !nil == true;            // true
var b;
print b = "set";               // set
`,
}

// MatchTopic finds a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	if query != "" {
		for _, name := range TopicList {
			if strings.HasPrefix(name, query) {
				matches = append(matches, name)
			}
		}
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	case 1:
		return matches[0], Topics[matches[0]], nil
	}
	sort.Strings(matches)
	return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
}
