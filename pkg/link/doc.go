// Package link promotes a directory by atomically repointing a live path.
//
// The new link is built at a temporary sibling and renamed over the live
// path, so readers always see either the old target or the new one. How
// the directory link itself is made is platform specific and hidden
// behind DirLinker: symbolic links on POSIX systems, directory junctions
// on Windows.
package link
