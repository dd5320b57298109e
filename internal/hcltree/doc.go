// Package hcltree loads a node tree from HCL files.
//
// Every top-level block becomes a child of an implicit root group named
// "root" with id 0. Blocks keep their source order across block types, and
// files are read in lexical order, so the order of a tree on disk is the
// order it is scheduled in.
//
//	synth "kick" {
//	  def  = "sine"
//	  freq = 55
//	}
//
//	parallel_group "voices" {
//	  synth "lead" { def = "sine" }
//	  group "fx" {
//	    id = 2000
//	    synth "hiss" { def = "noise" }
//	  }
//	}
package hcltree
