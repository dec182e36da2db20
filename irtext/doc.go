// Package irtext reads the rcopt IR text format.
//
// The format is S-expression based:
//
//	(module
//	  (func $f (args %x)
//	    (block $entry
//	      (retain %x)
//	      (%v %t = guarantee_begin %x)
//	      (apply $use %v)
//	      (guarantee_end %t)
//	      (release %x)
//	      (return))))
//
// Results are listed before '=', operands are %values, callees and block
// labels are $symbols (or quoted strings for names that are not plain
// identifiers), and integers supply extract indexes and literal constants.
// Comments use ;; for lines and (; ;) for blocks. The (module ...) wrapper is
// optional.
//
// Values and blocks may be referenced before their definition within a
// function. ir.Module.String produces text that Parse reads back unchanged.
package irtext
