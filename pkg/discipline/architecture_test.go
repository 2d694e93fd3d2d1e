package discipline

import (
	"testing"

	"meetcore/testutil"
)

func TestImportsOnlyPkg(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.Within("pkg"), "discipline must not depend on internal packages")
}
