// Package integrationtests runs the whole application against HCL trees and
// checks the ordering guarantees the scheduler gives at run time.
package integrationtests
