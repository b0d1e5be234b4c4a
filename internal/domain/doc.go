// Package domain models processed RU-WRF wind output and the derived
// fields the report images are built from.
//
// # Data Source
//
// Wind fields come from the group's processed 3-km WRF aggregation
// (hourly u/v components at 10, 160, 200, and 250 m above ground) on a
// curvilinear lat/lon grid covering the Mid-Atlantic Bight. The
// dataset gateway client in internal/adapter/thredds subsets the
// aggregation by height and time window and returns it as a WindField.
//
// # Conventions
//
// Wind components:
//
//	u is the west/east component (wind from the west is positive),
//	v is the south/north component (wind from the south is positive).
//	Speed is sqrt(u² + v²). Meteorological direction is the bearing the
//	wind blows FROM, clockwise from north: (270 − atan2°(v, u)) mod 360.
//
// Variance:
//
//	The "sdwind" variance field is sqrt(popvar(u) + popvar(v)) over the
//	time axis, using population (ddof = 0) variance as in the group's
//	earlier climatology products.
//
// Divergence:
//
//	Horizontal divergence du/dx + dv/dy on the uniform 3-km grid,
//	central differences in the interior and one-sided at the edges.
//	Plots display it scaled by 10⁴ (units 10⁻⁴ s⁻¹).
//
// Subsetting:
//
//	Region subsets take the bounding i/j box of every cell inside the
//	lon/lat extent. The grid is curvilinear, so the box keeps some
//	cells outside the extent; plots clip at the axes instead.
//
// Seabreeze days:
//
//	Hovmoller diagrams can be restricted to radar-classified seabreeze
//	days read from a CSV with Date and Seabreeze columns; rows flagged
//	"y" are kept.
package domain
