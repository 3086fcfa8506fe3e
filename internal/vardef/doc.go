// Package vardef compiles module vardefs and the relationship dictionary
// from CUE into meta types.
//
// Layout of a vardef root:
//
//	<root>/modules/<Dir>/vardefs.cue   one file per module, `dictionary: <Object>: {...}`
//	<root>/metadata/*.cue              the relationship dictionary, `relationships: <name>: {...}`
//
// A module vardef looks like:
//
//	dictionary: Account: {
//		table: "accounts"
//		fields: {
//			id:   {type: "id", required: true}
//			name: {type: "name", dbType: "varchar", length: 150}
//			contacts: {type: "link", source: "non-db"}
//		}
//		indices: [{name: "accountspk", type: "primary", fields: ["id"]}]
//		relationships: account_cases: {
//			lhs_module: "Accounts", lhs_table: "accounts", lhs_key: "id"
//			rhs_module: "Cases", rhs_table: "cases", rhs_key: "account_id"
//			relationship_type: "one-to-many"
//		}
//	}
//
// Relationship dictionary entries use the same field, index and link shapes,
// except that fields are usually written as a list of {name: ...} structs.
package vardef
