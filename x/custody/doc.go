/*

Package custody implements the authorization and accounting core of a
custodial token vault.

A vault is a single aggregate holding token balances together with the
configuration that decides who may move them: a controlling authority,
an optional N-of-M multisig, optional token weighted governance with
timelocked execution, and an emergency admin for the recovery path.
Time locked vesting schedules and fee accrual are part of the same
record, so every operation observes one consistent state.

Privileged operations may be wrapped in a proposal, either multisig or
governance, and reach the ledger only once the required threshold is
satisfied. The actual token transfers are delegated to a CoinMover
capability provided by the host. Vote weights come from a PowerSource.

*/
package custody
